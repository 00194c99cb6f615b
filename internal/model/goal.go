package model

import "time"

// SavingsGoal is a target amount to accumulate by a deadline. Progress is
// measured only from CreatedAt forward.
type SavingsGoal struct {
	Deadline     time.Time `json:"deadline"`
	CreatedAt    time.Time `json:"createdAt"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"targetAmount"`
}

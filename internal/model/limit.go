package model

// LimitType selects the window and filter a spending limit applies to.
type LimitType string

const (
	// LimitDaily caps total debits on the current calendar day.
	LimitDaily LimitType = "daily"
	// LimitMonthly caps total debits in the current calendar month.
	LimitMonthly LimitType = "monthly"
	// LimitCategory caps monthly debits carrying the target tag.
	LimitCategory LimitType = "category"
	// LimitMerchant caps monthly debits to the target merchant.
	LimitMerchant LimitType = "merchant"
)

// Valid reports whether t is a known limit type.
func (t LimitType) Valid() bool {
	switch t {
	case LimitDaily, LimitMonthly, LimitCategory, LimitMerchant:
		return true
	}
	return false
}

// SpendingLimit is a user-defined cap on spending. TargetID holds a tag id for
// category limits and a merchant identifier for merchant limits; daily and
// monthly limits ignore it.
type SpendingLimit struct {
	ID       string    `json:"id"`
	Type     LimitType `json:"type"`
	TargetID string    `json:"targetId,omitempty"`
	Limit    float64   `json:"limit"`
	IsActive bool      `json:"isActive"`
}

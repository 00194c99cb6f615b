// Package model defines the core domain records the dashboard operates on.
package model

// Snapshot is an immutable view of every record the analytics need.
// It is assembled by the caller and passed in full on each call.
type Snapshot struct {
	Transactions []Transaction   `json:"transactions"`
	Tags         []Tag           `json:"tags"`
	Budgets      []Budget        `json:"budgets"`
	Limits       []SpendingLimit `json:"limits"`
	Goals        []SavingsGoal   `json:"goals"`
}

// TagName returns the display name for id. The boolean is false when the
// catalog has no such tag.
func (s *Snapshot) TagName(id string) (string, bool) {
	for _, tag := range s.Tags {
		if tag.ID == id {
			return tag.Name, true
		}
	}
	return "", false
}

// TagNames returns an id to name lookup for the catalog.
func (s *Snapshot) TagNames() map[string]string {
	names := make(map[string]string, len(s.Tags))
	for _, tag := range s.Tags {
		names[tag.ID] = tag.Name
	}
	return names
}

// Goal returns the savings goal with the given id.
func (s *Snapshot) Goal(id string) (SavingsGoal, bool) {
	for _, g := range s.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return SavingsGoal{}, false
}

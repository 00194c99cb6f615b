package model

// Tag is a user-defined spending category. Analytics only match on ID;
// the remaining fields are display metadata.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

package models

// Divider is a budget category transactions can be assigned to.
type Divider struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MaxBudget   int    `json:"max_budget"`
}

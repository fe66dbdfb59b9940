package models

// Challenge is a weekly community goal. Progress is computed by the frontend
// from the impact feed; the backend only serves the challenge definitions.
type Challenge struct {
	ID         string `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	ActionType string `json:"actionType" db:"action_type"`
	Target     int    `json:"target" db:"target"`
	Week       string `json:"week" db:"week"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
}

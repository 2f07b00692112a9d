package models

import "time"

// Question is an evaluation form question managed by admins.
type Question struct {
	ID        string    `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Category  string    `db:"category" json:"category"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// QuestionFilter captures supported filters for listing questions.
type QuestionFilter struct {
	Active   *bool
	Category string
	Page     int
	PageSize int
}

package models

import "time"

// Novel is a serialized title containing ordered chapters.
type Novel struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	CoverURL    string    `json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows novel listings.
type ListFilter struct {
	Genre  string
	Limit  int
	Offset int
}

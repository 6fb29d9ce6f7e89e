package models

import "time"

// Chapter is a single chapter of a novel. Content is immutable for a reading
// session once fetched; edits surface only after cache expiry.
type Chapter struct {
	ID        string    `json:"id"`
	NovelID   string    `json:"novel_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Locked    bool      `json:"locked"`
	Price     int64     `json:"price"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

// ChapterSummary is the listing form of a chapter, without body content.
type ChapterSummary struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Locked    bool      `json:"locked"`
	Price     int64     `json:"price"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

// ChapterResponse is what readers receive. Content is omitted for locked
// chapters the requesting user has not unlocked.
type ChapterResponse struct {
	ID       string `json:"id"`
	NovelID  string `json:"novel_id"`
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Locked   bool   `json:"locked"`
	Unlocked bool   `json:"unlocked"`
	Price    int64  `json:"price"`
	Views    int64  `json:"views"`
}

// UnlockResponse reports the result of a chapter unlock.
type UnlockResponse struct {
	ChapterID  string `json:"chapter_id"`
	Cost       int64  `json:"cost"`
	NewBalance int64  `json:"new_balance"`
}

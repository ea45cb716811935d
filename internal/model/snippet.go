package model

import "time"

// Snippet represents a saved, shareable code snippet.
//
// UserName is copied from the owner's User record at creation time and is
// never refreshed afterwards.
type Snippet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"` // owner's external id
	UserName  string    `json:"userName"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a remark left on a snippet. Comments are removed together with
// their snippet.
type Comment struct {
	ID        string    `json:"id"`
	SnippetID string    `json:"snippetId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Star is one user's bookmark of one snippet. (UserID, SnippetID) is unique.
type Star struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SnippetID string    `json:"snippetId"`
	CreatedAt time.Time `json:"createdAt"`
}

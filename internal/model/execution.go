package model

import "time"

// Execution is an append-only record of one attempt to run code.
//
// Output and Error are independently optional: the execution backend may
// report both at once, and the record keeps whatever it was given.
type Execution struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Output    *string   `json:"output,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExecutionPage is one page of a user's executions, newest first.
// NextCursor is empty when there are no older records.
type ExecutionPage struct {
	Executions []Execution `json:"executions"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

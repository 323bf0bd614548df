// Package models defines core data structures for stored items, queries, and search results.
package models

import "time"

// Item is a stored vector with its identity and insertion ordinal.
type Item struct {
	ID        string    `json:"id" db:"id"`
	Ordinal   int       `json:"ordinal" db:"ordinal"`
	Label     string    `json:"label,omitempty" db:"label"`
	Vector    []float64 `json:"vector" db:"vector"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ItemInput is the input for adding a vector.
type ItemInput struct {
	ID     string    `json:"id,omitempty"`
	Label  string    `json:"label,omitempty"`
	Vector []float64 `json:"vector"`
}

package models

import "time"

// Course is a registered course code such as CPSC221.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      *string   `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

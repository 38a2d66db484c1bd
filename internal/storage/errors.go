package storage

import "errors"

// Sentinel errors for store facts. Stores return these (optionally wrapped);
// services translate them into domain error codes so backends stay
// interchangeable.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

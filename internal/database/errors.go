package database

import "errors"

// ErrDuplicateKey indicates an insert whose primary key already exists.
var ErrDuplicateKey = errors.New("record with the same key already exists")

// ErrNotFound indicates an operation on a record that does not exist.
var ErrNotFound = errors.New("record not found")

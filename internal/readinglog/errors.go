package readinglog

import "errors"

// ErrNoteEmpty indicates note content was empty after trimming.
var ErrNoteEmpty = errors.New("note content cannot be empty")

// ErrNoteTooLong indicates note content exceeded the maximum length.
var ErrNoteTooLong = errors.New("note content cannot exceed 10,000 characters")

// ErrInvalidStatus indicates a status value outside the four known statuses.
var ErrInvalidStatus = errors.New("unknown reading status")

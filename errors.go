package stash

import "errors"

// ErrInvalidInput is returned for missing or invalid required input.
// Reported to the caller, never retried.
var ErrInvalidInput = errors.New("stash: invalid input")

// ErrNotFound is returned when a referenced item, tag or file is absent.
var ErrNotFound = errors.New("stash: not found")

// ErrDuplicate is returned when a uniquely-named resource already exists.
var ErrDuplicate = errors.New("stash: already exists")

// ErrExtraction is returned when a content extractor failed and the
// request cannot degrade gracefully.
var ErrExtraction = errors.New("stash: extraction failed")

// ErrStorage is returned when a blob or database write failed.
var ErrStorage = errors.New("stash: storage failure")

package model

import "errors"

var (
	// ErrNotFound is returned when an input file does not exist or cannot be read.
	ErrNotFound = errors.New("input not found")

	// ErrFormat is returned when a reference table is structurally invalid,
	// e.g. a missing header column or a row with too few fields.
	ErrFormat = errors.New("invalid format")

	// ErrParse is returned when a value that must be an integer fails to parse.
	ErrParse = errors.New("parse error")
)

package search

import "errors"

// ErrEmptyQuery is returned when the search query is empty or whitespace.
var ErrEmptyQuery = errors.New("empty search query")

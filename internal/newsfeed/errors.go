package newsfeed

import "errors"

var (
	// ErrNetwork reports a failed feed request or a non-success status.
	ErrNetwork = errors.New("feed network error")
	// ErrParse reports a feed document that is not a valid RSS/Atom document.
	ErrParse = errors.New("feed parse error")
)

package article

import "errors"

var (
	// ErrNetwork reports a failed article request or a non-success status.
	ErrNetwork = errors.New("article network error")
	// ErrParse reports an article page that could not be parsed.
	ErrParse = errors.New("article parse error")
	// ErrSelectorMiss reports that no article body could be located in the page.
	ErrSelectorMiss = errors.New("article body not found")
)

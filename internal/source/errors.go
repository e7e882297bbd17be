package source

import "errors"

var (
	// ErrDecode is returned when source bytes cannot be turned into text,
	// even with the ISO-8859-1 fallback.
	ErrDecode = errors.New("cannot decode source")

	// ErrFetch is returned for a non-2xx response when loading a URL.
	ErrFetch = errors.New("fetch failed")

	// ErrTooLarge is returned when a fetched body exceeds MaxFetchSize.
	ErrTooLarge = errors.New("response too large")
)

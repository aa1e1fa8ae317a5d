package domain

import "errors"

// Expected failure modes of the link services. Handlers map these to
// HTTP status codes; everything else is a 500.
var (
	ErrShortURLExists = errors.New("short URL already exists")
	ErrLinkNotFound   = errors.New("link not found")
)

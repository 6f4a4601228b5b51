package router

import "errors"

// Router-level sentinel errors (§7). Frame-level codec errors live in
// internal/wire; these cover router lifecycle and subscription misuse.
var (
	ErrNoDialectSet    = errors.New("router: no dialect set")
	ErrUnknownConsumer = errors.New("router: unknown consumer")
	ErrClosed          = errors.New("router: closed")
)

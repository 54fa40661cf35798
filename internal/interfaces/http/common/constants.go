package common

import "time"

const (
	// MaxStoreRequestBody limits JSON request bodies for store writes.
	MaxStoreRequestBody = 1 << 20
	// MaxStoreDescriptionRunes keeps descriptions to a sane length.
	MaxStoreDescriptionRunes = 2000
	// RequestTimeout bounds storage work done for one request.
	RequestTimeout = 5 * time.Second
)

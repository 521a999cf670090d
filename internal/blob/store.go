package blob

import "context"

// Store accepts a binary image payload and returns a retrievable URL.
// Implementations own durability; callers treat any error as upload failure
// and abort whatever operation needed the URL.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

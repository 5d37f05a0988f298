package cart

import "errors"

// ErrMalformedCart marks persisted cart data that cannot be decoded. Stores
// treat it as "no saved cart".
var ErrMalformedCart = errors.New("malformed persisted cart")

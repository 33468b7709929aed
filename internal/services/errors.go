package services

import "errors"

// ErrInvalidInput marks malformed or out-of-range input rejected before
// any write. Handlers surface it as a 400 with the wrapped reason.
var ErrInvalidInput = errors.New("invalid input")

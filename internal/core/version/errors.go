package version

import "errors"

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrEncodeSnapshot    = errors.New("snapshot encoding failed")
)

package types

import "errors"

// Core errors are deterministic: the same inputs always reproduce them.
var (
	ErrImageLoad         = errors.New("image load failed")
	ErrDimensionMismatch = errors.New("mask dimensions do not match foreground")
	ErrEmptyContent      = errors.New("image has no visible content")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrIO                = errors.New("image write failed")
	ErrImageBounds       = errors.New("image outside size bounds")
)

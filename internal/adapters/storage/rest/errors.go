package rest

import "errors"

// Sentinel kinds for row-store errors.
var (
	ErrInsert = errors.New("score insert failed")
	ErrQuery  = errors.New("score query failed")
)

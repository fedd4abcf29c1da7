package seed

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrInvalidMode   = errors.New("seed mode must be append or replace")
)

package paygate

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

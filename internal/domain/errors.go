package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrOnlyBridged = errors.New("only bridged versions found")
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("upstream timeout")
	ErrUnavailable = errors.New("upstream unavailable")
)

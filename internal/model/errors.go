package model

import "errors"

// Sentinel errors returned by recipe sources
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSource     = errors.New("no recipe source configured")
)

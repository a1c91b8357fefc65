package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrLockHeld     = errors.New("lock already held")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrNoSnapshot   = errors.New("no snapshot available")
)

// UpstreamError reports that an external data source could not be reached or
// returned an unusable response. Callers treat it as "cannot determine", never
// as a negative answer.
type UpstreamError struct {
	Source string // "sofascore", "gamma", "clob"
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstream) true for every UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

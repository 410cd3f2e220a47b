// Package apperr defines the error kinds shared by the store gateway, the importer and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindNotFound
	KindWrite
	KindRateLimited
	KindMalformedSource
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection fault"
	case KindNotFound:
		return "not found"
	case KindWrite:
		return "write fault"
	case KindRateLimited:
		return "rate limited"
	case KindMalformedSource:
		return "malformed source"
	default:
		return "unknown"
	}
}

var (
	ErrConnection      = errors.New("connection fault")
	ErrNotFound        = errors.New("not found")
	ErrWrite           = errors.New("write fault")
	ErrRateLimited     = errors.New("rate limited")
	ErrMalformedSource = errors.New("malformed source")
)

var sentinels = map[Kind]error{
	KindConnection:      ErrConnection,
	KindNotFound:        ErrNotFound,
	KindWrite:           ErrWrite,
	KindRateLimited:     ErrRateLimited,
	KindMalformedSource: ErrMalformedSource,
}

// Error carries a Kind together with the operation and collection it happened in.
type Error struct {
	Kind       Kind
	Op         string
	Collection string
	Err        error
}

// E builds an *Error.
func E(kind Kind, op, collection string, err error) *Error {
	return &Error{Kind: kind, Op: op, Collection: collection, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Collection != "" {
		msg += " " + e.Collection
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match on Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf reports the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

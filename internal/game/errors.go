package game

import (
	"errors"
	"fmt"

	"semantra.io/internal/protocol"
)

// Error is a typed rejection. Every rule-level failure carries one of the
// protocol codes so transports can map it without string matching.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func Errf(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the protocol code from any error returned by the engine.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, ErrExists):
		return protocol.ErrExists
	case errors.Is(err, ErrVersionConflict):
		return protocol.ErrConflict
	case err != nil:
		return protocol.ErrInternal
	}
	return ""
}

// IsCode reports whether err carries the given protocol code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Store sentinels. Implementations must return these (wrapped is fine) so the
// engine can tell a missing record from a lost compare-and-commit race.
var (
	ErrNotFound        = errors.New("session not found")
	ErrExists          = errors.New("session already exists")
	ErrVersionConflict = errors.New("session version conflict")
)

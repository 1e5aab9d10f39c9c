package protocol

const (
	// Request/transport validation.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"

	// Lookup failures (session, player, gem, asteroid, target).
	ErrNotFound = "E_NOT_FOUND"
	ErrExists   = "E_EXISTS"

	// Rule layer.
	ErrInvalidPhase   = "E_INVALID_PHASE"
	ErrNotHost        = "E_NOT_HOST"
	ErrAlreadyDecided = "E_ALREADY_DECIDED"
	ErrExhausted      = "E_EXHAUSTED"

	// Store/collaborator layer.
	ErrConflict     = "E_CONFLICT"
	ErrCollaborator = "E_COLLABORATOR"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:     {},
	ErrRateLimit:      {},
	ErrNotFound:       {},
	ErrExists:         {},
	ErrInvalidPhase:   {},
	ErrNotHost:        {},
	ErrAlreadyDecided: {},
	ErrExhausted:      {},
	ErrConflict:       {},
	ErrCollaborator:   {},
	ErrInternal:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

package game

import (
	"time"

	"semantra.io/internal/protocol"
)

// ScorePolicy maps time remaining in SEARCH to the score a winning guess is
// worth. Kept replaceable: the bonus curve is a tunable, not a rule.
type ScorePolicy func(remaining, total time.Duration) int

// LinearScore gives base points plus a bonus scaled by the fraction of the
// search window left.
func LinearScore(base, bonus int) ScorePolicy {
	return func(remaining, total time.Duration) int {
		if total <= 0 {
			return base
		}
		if remaining < 0 {
			remaining = 0
		}
		if remaining > total {
			remaining = total
		}
		return base + int(float64(bonus)*remaining.Seconds()/total.Seconds())
	}
}

// DeductTokens removes amount tokens from the player, clamped at zero. The
// returned bool is true exactly when this deduction pushed the player from in
// to out, so the out transition is reported once.
func (s *Session) DeductTokens(playerID string, amount int) (out bool, err error) {
	p, ok := s.Player(playerID)
	if !ok {
		return false, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, s.Code)
	}
	wasOut := p.TokensOut
	p.Tokens -= amount
	if p.Tokens < 0 {
		p.Tokens = 0
	}
	p.TokensOut = p.Tokens <= 0
	return p.TokensOut && !wasOut, nil
}

// GrantTokens adds tokens, clamped at the session's starting budget.
func (s *Session) GrantTokens(playerID string, amount int) error {
	p, ok := s.Player(playerID)
	if !ok {
		return Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, s.Code)
	}
	p.Tokens += amount
	if p.Tokens > s.StartingTokens {
		p.Tokens = s.StartingTokens
	}
	p.TokensOut = p.Tokens <= 0
	return nil
}

// SearchRemaining is the time left on the SEARCH clock at now, zero when the
// phase is not SEARCH or the deadline already passed.
func (s *Session) SearchRemaining(now time.Time) time.Duration {
	if s.Phase != PhaseSearch || s.PhaseDeadline == nil {
		return 0
	}
	rem := s.PhaseDeadline.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

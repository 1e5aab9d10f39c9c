package game

import (
	"time"

	"semantra.io/internal/protocol"
)

// Phase is the current stage of a round.
type Phase string

const (
	PhaseTutorial     Phase = "TUTORIAL"
	PhaseTargetReveal Phase = "TARGET_REVEAL"
	PhaseSearch       Phase = "SEARCH"
	PhaseEnd          Phase = "END"
	PhaseWaiting      Phase = "WAITING_FOR_READY"
)

// Timed reports whether the phase carries a deadline. TUTORIAL and
// WAITING_FOR_READY wait indefinitely for player action.
func (p Phase) Timed() bool {
	switch p {
	case PhaseTargetReveal, PhaseSearch, PhaseEnd:
		return true
	}
	return false
}

// Repair advances every deadline-expired transition before the caller acts on
// the session. There is no background scheduler: a timed transition is only
// ever observed because some request ran this first. Transitions cascade,
// each anchored at the deadline that expired rather than at now, so a session
// nobody touched for a while catches up to the phase it should be in.
// Calling Repair again with no elapsed time is a no-op.
func (s *Session) Repair(now time.Time) []protocol.Event {
	var events []protocol.Event
	for {
		if s.PhaseDeadline == nil || now.Before(*s.PhaseDeadline) {
			return events
		}
		at := *s.PhaseDeadline
		switch s.Phase {
		case PhaseTargetReveal:
			s.beginSearch(at)
			events = append(events, s.phaseEvent(now))
		case PhaseSearch:
			// Timeout: the round ends with no winner.
			events = append(events, s.endRound(at, now)...)
		case PhaseEnd:
			s.enterWaiting()
			events = append(events, s.phaseEvent(now))
		default:
			// A deadline on an untimed phase is a stored-state bug; drop it
			// rather than spin.
			s.PhaseDeadline = nil
			return events
		}
	}
}

// StartRound begins round n+1: picks are supplied by the caller because
// target selection needs the word pool and a random source.
func (s *Session) StartRound(at time.Time, target Candidate, definition string) {
	s.RoundNumber++
	s.Phase = PhaseTargetReveal
	deadline := at.Add(s.Durations.Reveal)
	s.PhaseDeadline = &deadline
	s.Target = &target
	s.Definition = definition
	s.RoundWinnerID = ""
	s.RoundWinnerName = ""
	s.ClearTransients()
	for _, p := range s.Players {
		p.Ready = false
		p.HintUsed = false
	}
}

func (s *Session) beginSearch(at time.Time) {
	s.Phase = PhaseSearch
	deadline := at.Add(s.Durations.Search)
	s.PhaseDeadline = &deadline
	for _, p := range s.Players {
		p.HintUsed = false
	}
}

// endRound moves SEARCH to END. Winner fields must already be set for a won
// round and empty for a timeout.
func (s *Session) endRound(at, now time.Time) []protocol.Event {
	s.Phase = PhaseEnd
	deadline := at.Add(s.Durations.End)
	s.PhaseDeadline = &deadline
	s.ClearTransients()
	ev := []protocol.Event{s.phaseEvent(now)}
	if s.Target != nil {
		ev = append(ev, s.event(protocol.TypeRoundEnd, now, protocol.RoundEnd{
			Round:       s.RoundNumber,
			WinnerID:    s.RoundWinnerID,
			WinnerName:  s.RoundWinnerName,
			TargetID:    s.Target.ID,
			TargetLabel: s.Target.Label,
		}))
	}
	return ev
}

func (s *Session) enterWaiting() {
	s.Phase = PhaseWaiting
	s.PhaseDeadline = nil
	// Winner fields are meaningful only while the end screen shows.
	s.RoundWinnerID = ""
	s.RoundWinnerName = ""
}

// Finished reports whether no further round may start.
func (s *Session) Finished() bool {
	return s.RoundNumber >= s.MaxRounds
}

// Deactivate ends the run and freezes the session in a terminal state.
func (s *Session) Deactivate() {
	s.Active = false
	s.Phase = PhaseWaiting
	s.PhaseDeadline = nil
	s.Target = nil
	s.Definition = ""
	s.RoundWinnerID = ""
	s.RoundWinnerName = ""
	s.ClearTransients()
}

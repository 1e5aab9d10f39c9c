package game

import (
	"context"
	"errors"
	"time"

	"semantra.io/internal/protocol"
)

// Create opens a new room in TUTORIAL with the host as its first player.
func (e *Engine) Create(ctx context.Context, hostNickname string) (*Session, *Player, error) {
	now := e.now()
	host := e.newPlayer(hostNickname, now)
	s := &Session{
		Code:           e.newCode(),
		HostID:         host.ID,
		Phase:          PhaseTutorial,
		MaxRounds:      e.tune.MaxRounds,
		StartingTokens: e.tune.StartingTokens,
		Durations: Durations{
			Reveal: e.tune.RevealDuration(),
			Search: e.tune.SearchDuration(),
			End:    e.tune.EndDuration(),
		},
		Players:   map[string]*Player{host.ID: host},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, nil, err
	}
	e.fanOut(ctx, "create", s, []protocol.Event{s.lobbyEvent(now)})
	return s, host, nil
}

// Join adds a player. Joining an active mid-round game is allowed; the
// newcomer starts with a full token budget and no score.
func (e *Engine) Join(ctx context.Context, code, nickname string) (*Session, *Player, error) {
	var joined *Player
	s, err := e.update(ctx, code, "join", func(s *Session, now time.Time) ([]protocol.Event, error) {
		joined = e.newPlayer(nickname, now)
		s.AddPlayer(joined)
		events := []protocol.Event{s.lobbyEvent(now)}
		if s.Active {
			events = append(events, s.event(protocol.TypeJoinedActive, now, protocol.PlayerRef{
				PlayerID: joined.ID,
				Nickname: joined.Nickname,
			}))
		}
		return events, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return s, joined, nil
}

// Ready marks the player ready. When the last ready lands in
// WAITING_FOR_READY (or during the END screen) the round advances — or the
// session deactivates once the round budget is spent.
func (e *Engine) Ready(ctx context.Context, code, playerID string) (*Session, error) {
	return e.update(ctx, code, "ready", func(s *Session, now time.Time) ([]protocol.Event, error) {
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		p.Ready = true
		events := []protocol.Event{s.event(protocol.TypePlayerReady, now, protocol.PlayerRef{
			PlayerID: p.ID,
			Nickname: p.Nickname,
		})}
		return append(events, e.settle(s, now)...), nil
	})
}

// Leave removes the player immediately. A departing host hands the room to
// another player; the last player out tears the room down.
func (e *Engine) Leave(ctx context.Context, code, playerID string) error {
	var empty bool
	_, err := e.update(ctx, code, "leave", func(s *Session, now time.Time) ([]protocol.Event, error) {
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		s.RemovePlayer(playerID)
		empty = len(s.Players) == 0
		if !empty && s.HostID == playerID {
			for id := range s.Players {
				s.HostID = id
				break
			}
		}
		events := []protocol.Event{
			s.event(protocol.TypePlayerLeft, now, protocol.PlayerRef{PlayerID: p.ID, Nickname: p.Nickname}),
			s.lobbyEvent(now),
		}
		// The leaver may have been the only holdout on the ready gate.
		return append(events, e.settle(s, now)...), nil
	})
	if err != nil {
		return err
	}
	if empty {
		if derr := e.store.Delete(ctx, code); derr != nil {
			e.log.Printf("session %s: delete abandoned room: %v", code, derr)
		}
	}
	return nil
}

// Start activates the session and begins round 1. Host only.
func (e *Engine) Start(ctx context.Context, code, playerID string) (*Session, error) {
	// The word set load is the one slow call here; cache it across commit
	// retries so a conflict never refetches.
	var pool []Word
	return e.update(ctx, code, "start", func(s *Session, now time.Time) ([]protocol.Event, error) {
		if s.HostID != playerID {
			return nil, Errf(protocol.ErrNotHost, "player %s is not the host of %s", playerID, code)
		}
		if s.Active {
			return nil, Errf(protocol.ErrInvalidPhase, "session %s already running", code)
		}
		if len(s.Candidates) == 0 {
			if pool == nil {
				var err error
				if pool, err = e.words.WordSet(ctx); err != nil {
					return nil, Errf(protocol.ErrCollaborator, "load word set: %v", err)
				}
			}
			if len(pool) == 0 {
				return nil, Errf(protocol.ErrCollaborator, "word set is empty")
			}
			s.Candidates = make([]Candidate, 0, len(pool))
			s.Definitions = make(map[string]string, len(pool))
			for _, w := range pool {
				s.Candidates = append(s.Candidates, Candidate{ID: w.ID, Label: w.Label, Pos: w.Pos})
				s.Definitions[w.ID] = w.Definition
			}
		}
		s.Active = true
		s.RoundNumber = 0
		for _, p := range s.Players {
			p.Score = 0
			p.Tokens = s.StartingTokens
			p.TokensOut = false
		}
		events := []protocol.Event{s.event(protocol.TypeGameStart, now, s.LobbyState())}
		return append(events, e.nextRoundOrFinish(s, now)...), nil
	})
}

// GuessResult is the caller-facing outcome of a guess.
type GuessResult struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score,omitempty"`
}

// Guess resolves a target guess. At most one guess per round is accepted as
// the win: acceptance is decided by the compare-and-commit, not by whoever
// read SEARCH first. A lost race surfaces as E_ALREADY_DECIDED.
func (e *Engine) Guess(ctx context.Context, code, playerID, targetID string) (GuessResult, error) {
	var res GuessResult
	_, err := e.update(ctx, code, "guess", func(s *Session, now time.Time) ([]protocol.Event, error) {
		res = GuessResult{}
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if s.Phase != PhaseSearch {
			if s.Phase == PhaseEnd && s.RoundWinnerID != "" {
				return nil, Errf(protocol.ErrAlreadyDecided, "round %d already won by %s", s.RoundNumber, s.RoundWinnerName)
			}
			return nil, Errf(protocol.ErrInvalidPhase, "guess outside SEARCH (phase %s)", s.Phase)
		}
		if s.Target == nil {
			return nil, Errf(protocol.ErrInvalidPhase, "session %s has no target", code)
		}
		if _, ok := s.CandidateByID(targetID); !ok {
			return nil, Errf(protocol.ErrNotFound, "unknown candidate %s", targetID)
		}
		if targetID != s.Target.ID {
			// A miss resolves the guess, it does not reject it.
			return nil, nil
		}
		award := e.score(s.SearchRemaining(now), s.Durations.Search)
		p.Score += award
		s.RoundWinnerID = p.ID
		s.RoundWinnerName = p.Nickname
		res = GuessResult{Correct: true, Score: award}
		events := s.endRound(now, now)
		// Rewrite the round-end fan-out with the score attached.
		for i := range events {
			if events[i].Type == protocol.TypeRoundEnd {
				events[i].Data = protocol.RoundEnd{
					Round:       s.RoundNumber,
					WinnerID:    p.ID,
					WinnerName:  p.Nickname,
					TargetID:    s.Target.ID,
					TargetLabel: s.Target.Label,
					Score:       award,
				}
			}
		}
		return events, nil
	})
	return res, err
}

// Hint deducts the hint cost and returns generated hint text. The
// collaborator is called before any mutation: its failure rejects the action
// with nothing committed.
func (e *Engine) Hint(ctx context.Context, code, playerID string) (string, error) {
	var text string
	_, err := e.update(ctx, code, "hint", func(s *Session, now time.Time) ([]protocol.Event, error) {
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if s.Phase != PhaseSearch {
			return nil, Errf(protocol.ErrInvalidPhase, "hint outside SEARCH (phase %s)", s.Phase)
		}
		if p.HintUsed {
			return nil, Errf(protocol.ErrExhausted, "hint already used this round")
		}
		if p.TokensOut {
			return nil, Errf(protocol.ErrExhausted, "player %s is out of tokens", playerID)
		}
		var err error
		if text, err = e.hints.Hint(ctx, s.Target.Label, s.Definition); err != nil {
			return nil, Errf(protocol.ErrCollaborator, "hint generation: %v", err)
		}
		wentOut, err := s.DeductTokens(playerID, e.tune.HintTokenCost)
		if err != nil {
			return nil, err
		}
		p.Score -= e.tune.HintScorePenalty
		p.HintUsed = true
		events := []protocol.Event{
			s.event(protocol.TypeHintIssued, now, protocol.PlayerRef{PlayerID: p.ID}),
			s.tokensEvent(now, p),
		}
		if wentOut {
			events = append(events, s.event(protocol.TypePlayerOut, now, protocol.PlayerRef{PlayerID: p.ID}))
		}
		return events, nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// HazardHit charges the player for flying into an asteroid and removes it.
// An id that is no longer active is stale client state, not a rule breach.
func (e *Engine) HazardHit(ctx context.Context, code, playerID, hazardID string) (*Session, error) {
	return e.update(ctx, code, "hazard-hit", func(s *Session, now time.Time) ([]protocol.Event, error) {
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if s.Phase != PhaseSearch {
			return nil, Errf(protocol.ErrInvalidPhase, "hazard hit outside SEARCH (phase %s)", s.Phase)
		}
		h, ok := s.TakeHazard(hazardID, now)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "asteroid %s is gone", hazardID)
		}
		wentOut, err := s.DeductTokens(playerID, h.Cost)
		if err != nil {
			return nil, err
		}
		events := []protocol.Event{
			s.event(protocol.TypeAsteroidHit, now, protocol.EntityHit{PlayerID: p.ID, EntityID: h.ID, Cost: h.Cost}),
			s.tokensEvent(now, p),
		}
		if wentOut {
			events = append(events, s.event(protocol.TypePlayerOut, now, protocol.PlayerRef{PlayerID: p.ID}))
		}
		return events, nil
	})
}

// GemPickup grants the gem's value in tokens, clamped at the starting budget.
func (e *Engine) GemPickup(ctx context.Context, code, playerID, gemID string) (*Session, error) {
	return e.update(ctx, code, "gem-pickup", func(s *Session, now time.Time) ([]protocol.Event, error) {
		p, ok := s.Player(playerID)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if s.Phase != PhaseSearch {
			return nil, Errf(protocol.ErrInvalidPhase, "gem pickup outside SEARCH (phase %s)", s.Phase)
		}
		r, ok := s.TakeReward(gemID, now)
		if !ok {
			return nil, Errf(protocol.ErrNotFound, "gem %s is gone", gemID)
		}
		if err := s.GrantTokens(playerID, r.Value); err != nil {
			return nil, err
		}
		return []protocol.Event{
			s.event(protocol.TypeGemCollected, now, protocol.EntityHit{PlayerID: p.ID, EntityID: r.ID, Value: r.Value}),
			s.tokensEvent(now, p),
		}, nil
	})
}

// SpawnPoll sweeps expired gems/asteroids and rolls for new ones. One store
// write per poll regardless of how many entities changed.
func (e *Engine) SpawnPoll(ctx context.Context, code, playerID string) (*Session, error) {
	return e.update(ctx, code, "spawn-poll", func(s *Session, now time.Time) ([]protocol.Event, error) {
		if _, ok := s.Player(playerID); !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if s.Phase != PhaseSearch {
			return nil, Errf(protocol.ErrInvalidPhase, "spawn poll outside SEARCH (phase %s)", s.Phase)
		}
		return e.spawner().Tick(s, now), nil
	})
}

// Advance is the manual fallback for deadline-driven transitions, for rooms
// whose clients never trip the lazy-repair path. Accepted only in END and
// WAITING_FOR_READY.
func (e *Engine) Advance(ctx context.Context, code, playerID string) (*Session, error) {
	return e.update(ctx, code, "advance", func(s *Session, now time.Time) ([]protocol.Event, error) {
		if _, ok := s.Player(playerID); !ok {
			return nil, Errf(protocol.ErrNotFound, "player %s not in session %s", playerID, code)
		}
		if !s.Active {
			return nil, Errf(protocol.ErrExhausted, "session %s already completed", code)
		}
		switch s.Phase {
		case PhaseEnd:
			s.enterWaiting()
			return []protocol.Event{s.phaseEvent(now)}, nil
		case PhaseWaiting:
			return e.nextRoundOrFinish(s, now), nil
		default:
			return nil, Errf(protocol.ErrInvalidPhase, "advance in phase %s", s.Phase)
		}
	})
}

// State returns the current session after lazy repair. Repair-only changes
// are persisted best-effort so a read is enough to drive phase catch-up.
func (e *Engine) State(ctx context.Context, code string) (*Session, error) {
	s, err := e.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	now := e.now()
	expected := s.Version
	events := s.Repair(now)
	events = append(events, e.settle(s, now)...)
	if len(events) == 0 {
		return s, nil
	}
	if err := e.store.Commit(ctx, s, expected); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// Someone else committed first; serve their state, repaired
			// in memory so the caller never sees an expired phase. The
			// repair cascade is deterministic, so a later commit lands on
			// the same result.
			fresh, lerr := e.store.Load(ctx, code)
			if lerr != nil {
				return nil, lerr
			}
			fresh.Repair(now)
			return fresh, nil
		}
		return nil, err
	}
	e.fanOut(ctx, "state", s, events)
	return s, nil
}

func (e *Engine) newPlayer(nickname string, now time.Time) *Player {
	if nickname == "" {
		nickname = "pilot"
	}
	return &Player{
		ID:       e.newID(),
		Nickname: nickname,
		Tokens:   e.tune.StartingTokens,
		JoinedAt: now,
	}
}

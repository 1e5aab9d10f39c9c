package game

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"semantra.io/internal/protocol"
	"semantra.io/internal/tuning"
)

// Store is the session persistence contract. Commit is an atomic
// compare-and-commit: it must fail with ErrVersionConflict when the stored
// version no longer equals expectedVersion, and must bump both the stored and
// the in-memory Version on success. The store is the sole source of truth
// between requests; nothing may be cached across calls.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Load(ctx context.Context, code string) (*Session, error)
	Commit(ctx context.Context, s *Session, expectedVersion int64) error
	Delete(ctx context.Context, code string) error
}

// Notifier fans committed events out to connected clients. At-most-once, no
// ordering guarantee; failures are the transport's problem.
type Notifier interface {
	Publish(code string, events []protocol.Event)
}

// HintGenerator is the external text-generation collaborator.
type HintGenerator interface {
	Hint(ctx context.Context, label, definition string) (string, error)
}

// Word is one candidate plus its server-side riddle.
type Word struct {
	ID         string
	Label      string
	Definition string
	Pos        Vec3
}

// WordSource supplies the candidate pool, loaded once per session at start.
type WordSource interface {
	WordSet(ctx context.Context) ([]Word, error)
}

// Reporter receives the final per-player score list when a session completes.
type Reporter interface {
	ReportFinal(ctx context.Context, code string, scores []protocol.FinalScore) error
}

// Recorder journals committed actions. Best-effort; never fails an action.
type Recorder interface {
	Record(action, code string, version int64, events []protocol.Event)
}

type Config struct {
	Store   Store
	Notify  Notifier
	Hints   HintGenerator
	Words   WordSource
	Stats   Reporter
	Journal Recorder
	Tuning  tuning.Tuning
	Score   ScorePolicy
	Logger  *log.Logger

	// Test seams.
	Now     func() time.Time
	NewID   func() string
	NewCode func() string
	Seed    int64
}

// Engine applies every inbound action through the same cycle: load the
// session, lazily repair expired phases, apply the action, compare-and-commit.
// Engines hold no session state of their own; any number of them (or of
// concurrent calls into one) may race on the same room and the store's
// version check is the only serialization point.
type Engine struct {
	store   Store
	notify  Notifier
	hints   HintGenerator
	words   WordSource
	stats   Reporter
	journal Recorder
	tune    tuning.Tuning
	score   ScorePolicy
	log     *log.Logger

	now     func() time.Time
	newID   func() string
	newCode func() string
	rng     *lockedRand
}

func New(cfg Config) *Engine {
	e := &Engine{
		store:   cfg.Store,
		notify:  cfg.Notify,
		hints:   cfg.Hints,
		words:   cfg.Words,
		stats:   cfg.Stats,
		journal: cfg.Journal,
		tune:    cfg.Tuning,
		score:   cfg.Score,
		log:     cfg.Logger,
		now:     cfg.Now,
		newID:   cfg.NewID,
		newCode: cfg.NewCode,
	}
	if e.score == nil {
		e.score = LinearScore(e.tune.WinBaseScore, e.tune.WinTimeBonus)
	}
	if e.log == nil {
		e.log = log.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.newCode == nil {
		e.newCode = RandomCode
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.rng = &lockedRand{r: mrand.New(mrand.NewSource(seed))}
	return e
}

// codeAlphabet omits look-alike characters.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// RandomCode returns a 6-character room code.
func RandomCode() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

type lockedRand struct {
	mu sync.Mutex
	r  *mrand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// applyFunc mutates the already-repaired session and returns the events the
// mutation should fan out. An error means the action is rejected; the engine
// then commits nothing of the action (repairs are still persisted).
type applyFunc func(s *Session, now time.Time) ([]protocol.Event, error)

// update runs one action through the load/repair/apply/commit cycle with
// bounded retries. A lost compare-and-commit reloads and re-applies against
// the fresh state, so losers of a race observe the winner's outcome instead
// of overwriting it.
func (e *Engine) update(ctx context.Context, code, action string, fn applyFunc) (*Session, error) {
	attempts := e.tune.CommitAttempts
	if attempts <= 0 {
		attempts = 3
	}
	for attempt := 0; attempt < attempts; attempt++ {
		s, err := e.store.Load(ctx, code)
		if err != nil {
			return nil, err
		}
		now := e.now()
		expected := s.Version

		events := s.Repair(now)
		events = append(events, e.settle(s, now)...)

		actionEvents, err := fn(s, now)
		if err != nil {
			// Rejected. The in-memory session may hold partial action
			// mutations, so persist the repair from a clean load instead.
			if len(events) > 0 {
				e.commitRepairOnly(ctx, code, action)
			}
			return nil, err
		}
		events = append(events, actionEvents...)

		if err := e.store.Commit(ctx, s, expected); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return nil, err
		}
		e.fanOut(ctx, action, s, events)
		return s, nil
	}
	return nil, Errf(protocol.ErrConflict, "session %s: commit contention on %s", code, action)
}

// commitRepairOnly persists lazily repaired phase state when the triggering
// action itself was rejected. Best-effort: a conflict means another request
// already repaired.
func (e *Engine) commitRepairOnly(ctx context.Context, code, action string) {
	s, err := e.store.Load(ctx, code)
	if err != nil {
		return
	}
	now := e.now()
	expected := s.Version
	events := s.Repair(now)
	events = append(events, e.settle(s, now)...)
	if len(events) == 0 {
		return
	}
	if err := e.store.Commit(ctx, s, expected); err != nil {
		return
	}
	e.fanOut(ctx, action, s, events)
}

// fanOut runs every post-commit side effect. The final-score report rides on
// the committed GAME_END event rather than on finish itself, so a completion
// computed in a losing or rejected attempt is never reported; the one commit
// that deactivates the session reports exactly once.
func (e *Engine) fanOut(ctx context.Context, action string, s *Session, events []protocol.Event) {
	if len(events) > 0 && e.notify != nil {
		e.notify.Publish(s.Code, events)
	}
	if e.journal != nil {
		e.journal.Record(action, s.Code, s.Version, events)
	}
	if e.stats == nil {
		return
	}
	for _, ev := range events {
		end, ok := ev.Data.(protocol.GameEnd)
		if !ok {
			continue
		}
		if err := e.stats.ReportFinal(ctx, s.Code, end.Scores); err != nil {
			e.log.Printf("session %s: report final scores: %v", s.Code, err)
		}
	}
}

// settle fires the ready-gate transitions that have no deadline: END exits
// early when everyone readied during the end screen, and WAITING_FOR_READY
// exits once the last ready arrives (possibly having just been entered by the
// same repair pass).
func (e *Engine) settle(s *Session, now time.Time) []protocol.Event {
	if !s.Active {
		return nil
	}
	var events []protocol.Event
	if s.Phase == PhaseEnd && s.AllReady() {
		s.enterWaiting()
		events = append(events, s.phaseEvent(now))
	}
	if s.Phase == PhaseWaiting && s.AllReady() {
		events = append(events, e.nextRoundOrFinish(s, now)...)
	}
	return events
}

// nextRoundOrFinish is the WAITING_FOR_READY exit: a fresh round, or terminal
// deactivation when the round budget is spent.
func (e *Engine) nextRoundOrFinish(s *Session, now time.Time) []protocol.Event {
	if s.Finished() {
		return e.finish(s, now)
	}
	target, definition := e.pickTarget(s)
	s.StartRound(now, target, definition)
	return []protocol.Event{s.event(protocol.TypeRoundStart, now, protocol.RoundStart{
		Round:      s.RoundNumber,
		Definition: s.Definition,
		Deadline:   s.PhaseDeadline,
	})}
}

// finish only mutates state; the score report happens post-commit in fanOut.
func (e *Engine) finish(s *Session, now time.Time) []protocol.Event {
	rounds := s.RoundNumber
	scores := s.FinalScores()
	s.Deactivate()
	return []protocol.Event{s.event(protocol.TypeGameEnd, now, protocol.GameEnd{
		Code:   s.Code,
		Rounds: rounds,
		Scores: scores,
	})}
}

// pickTarget draws a random candidate, avoiding an immediate repeat when the
// pool allows it.
func (e *Engine) pickTarget(s *Session) (Candidate, string) {
	n := len(s.Candidates)
	c := s.Candidates[e.rng.Intn(n)]
	if s.Target != nil && c.ID == s.Target.ID && n > 1 {
		for c.ID == s.Target.ID {
			c = s.Candidates[e.rng.Intn(n)]
		}
	}
	return c, s.Definitions[c.ID]
}

func (e *Engine) spawner() *Spawner {
	return &Spawner{Cfg: e.tune.Spawns, Rng: e.rng, NewID: e.newID}
}

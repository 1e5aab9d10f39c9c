package game

import (
	"time"
)

// Vec3 is a point (or velocity) in the embedding space the clients render.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Candidate is one static guessable word point. The pool is loaded once per
// session and immutable afterwards.
type Candidate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Pos   Vec3   `json:"pos"`
}

type Player struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Ready     bool      `json:"ready"`
	Score     int       `json:"score"`
	Tokens    int       `json:"tokens"`
	TokensOut bool      `json:"tokens_out"`
	HintUsed  bool      `json:"hint_used"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Reward is a gem: collecting it grants tokens. Collected or expired gems are
// removed from the session, never flagged.
type Reward struct {
	ID        string    `json:"id"`
	Pos       Vec3      `json:"pos"`
	Vel       Vec3      `json:"vel"`
	Size      float64   `json:"size"`
	Value     int       `json:"value"`
	SpawnedAt time.Time `json:"spawned_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Hazard is an asteroid: hitting it costs tokens.
type Hazard struct {
	ID        string    `json:"id"`
	Pos       Vec3      `json:"pos"`
	Vel       Vec3      `json:"vel"`
	Size      float64   `json:"size"`
	Cost      int       `json:"cost"`
	SpawnedAt time.Time `json:"spawned_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Durations is the per-session phase timing, fixed at creation.
type Durations struct {
	Reveal time.Duration `json:"reveal"`
	Search time.Duration `json:"search"`
	End    time.Duration `json:"end"`
}

// Session is the full authoritative state of one game room. It is the single
// owner of every contained entity; players, gems and asteroids have no
// existence outside it. The document is persisted whole and guarded by an
// optimistic Version token (see Store).
type Session struct {
	Code   string `json:"code"`
	HostID string `json:"host_id"`

	Active        bool       `json:"active"`
	RoundNumber   int        `json:"round_number"`
	MaxRounds     int        `json:"max_rounds"`
	Phase         Phase      `json:"phase"`
	PhaseDeadline *time.Time `json:"phase_deadline,omitempty"`

	Target     *Candidate `json:"target,omitempty"`
	Definition string     `json:"definition,omitempty"`

	RoundWinnerID   string `json:"round_winner_id,omitempty"`
	RoundWinnerName string `json:"round_winner_name,omitempty"`

	Durations      Durations `json:"durations"`
	StartingTokens int       `json:"starting_tokens"`

	Players    map[string]*Player `json:"players"`
	Candidates []Candidate        `json:"candidates,omitempty"`
	// Definitions is keyed by candidate id and stays server-side; only the
	// current target's definition is exposed to clients.
	Definitions map[string]string `json:"definitions,omitempty"`

	Rewards []Reward `json:"rewards,omitempty"`
	Hazards []Hazard `json:"hazards,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) Player(id string) (*Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

func (s *Session) AddPlayer(p *Player) {
	if s.Players == nil {
		s.Players = make(map[string]*Player)
	}
	s.Players[p.ID] = p
}

func (s *Session) RemovePlayer(id string) bool {
	if _, ok := s.Players[id]; !ok {
		return false
	}
	delete(s.Players, id)
	return true
}

// AllReady reports whether every present player has readied up. An empty room
// is never "all ready".
func (s *Session) AllReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s *Session) CandidateByID(id string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// ActiveRewards returns the gems still visible at now. The stored slice may
// trail reality between sweeps; visibility is always derived from ExpiresAt.
func (s *Session) ActiveRewards(now time.Time) []Reward {
	out := make([]Reward, 0, len(s.Rewards))
	for _, r := range s.Rewards {
		if now.Before(r.ExpiresAt) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) ActiveHazards(now time.Time) []Hazard {
	out := make([]Hazard, 0, len(s.Hazards))
	for _, h := range s.Hazards {
		if now.Before(h.ExpiresAt) {
			out = append(out, h)
		}
	}
	return out
}

// TakeReward removes and returns the reward with the given id if it is still
// active at now.
func (s *Session) TakeReward(id string, now time.Time) (Reward, bool) {
	for i, r := range s.Rewards {
		if r.ID == id && now.Before(r.ExpiresAt) {
			s.Rewards = append(s.Rewards[:i], s.Rewards[i+1:]...)
			return r, true
		}
	}
	return Reward{}, false
}

func (s *Session) TakeHazard(id string, now time.Time) (Hazard, bool) {
	for i, h := range s.Hazards {
		if h.ID == id && now.Before(h.ExpiresAt) {
			s.Hazards = append(s.Hazards[:i], s.Hazards[i+1:]...)
			return h, true
		}
	}
	return Hazard{}, false
}

// ClearTransients drops every gem and asteroid. Called on every transition
// out of SEARCH.
func (s *Session) ClearTransients() {
	s.Rewards = nil
	s.Hazards = nil
}

package protocol

import "time"

// CandidateInfo is one guessable word point as clients see it. Which point is
// the target is never in the view; that is the game.
type CandidateInfo struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Pos   [3]float64 `json:"pos"`
}

// SessionView is the snapshot served to clients: the full session minus
// anything that would give the round away.
type SessionView struct {
	Code        string     `json:"code"`
	HostID      string     `json:"host_id"`
	Active      bool       `json:"active"`
	Phase       string     `json:"phase"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	RoundNumber int        `json:"round_number"`
	MaxRounds   int        `json:"max_rounds"`
	Definition  string     `json:"definition,omitempty"`

	WinnerID   string `json:"winner_id,omitempty"`
	WinnerName string `json:"winner_name,omitempty"`

	Players    []PlayerInfo    `json:"players"`
	Candidates []CandidateInfo `json:"candidates,omitempty"`
	Gems       []EntitySpawned `json:"gems,omitempty"`
	Asteroids  []EntitySpawned `json:"asteroids,omitempty"`

	Version int64 `json:"version"`
}

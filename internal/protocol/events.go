package protocol

import "time"

// Event is the fan-out envelope published to every subscriber of a session.
// Delivery is at-most-once and unordered; clients reconcile against the
// session snapshot, never against event history.
type Event struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Session         string    `json:"session"`
	At              time.Time `json:"at"`
	Data            any       `json:"data,omitempty"`
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Ready     bool   `json:"ready"`
	Score     int    `json:"score"`
	Tokens    int    `json:"tokens"`
	TokensOut bool   `json:"tokens_out"`
}

type LobbyState struct {
	Code        string       `json:"code"`
	HostID      string       `json:"host_id"`
	Active      bool         `json:"active"`
	Phase       string       `json:"phase"`
	RoundNumber int          `json:"round_number"`
	MaxRounds   int          `json:"max_rounds"`
	Players     []PlayerInfo `json:"players"`
}

type RoundStart struct {
	Round      int        `json:"round"`
	Definition string     `json:"definition"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

type PhaseChange struct {
	Phase    string     `json:"phase"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type RoundEnd struct {
	Round       int    `json:"round"`
	WinnerID    string `json:"winner_id,omitempty"`
	WinnerName  string `json:"winner_name,omitempty"`
	TargetID    string `json:"target_id"`
	TargetLabel string `json:"target_label"`
	Score       int    `json:"score,omitempty"`
}

type TokensUpdated struct {
	PlayerID  string `json:"player_id"`
	Tokens    int    `json:"tokens"`
	TokensOut bool   `json:"tokens_out"`
}

type PlayerRef struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname,omitempty"`
}

type EntitySpawned struct {
	ID        string     `json:"id"`
	Pos       [3]float64 `json:"pos"`
	Vel       [3]float64 `json:"vel"`
	Size      float64    `json:"size"`
	Value     int        `json:"value,omitempty"`
	Cost      int        `json:"cost,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type EntityHit struct {
	PlayerID string `json:"player_id"`
	EntityID string `json:"entity_id"`
	Value    int    `json:"value,omitempty"`
	Cost     int    `json:"cost,omitempty"`
}

type FinalScore struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

type GameEnd struct {
	Code   string       `json:"code"`
	Rounds int          `json:"rounds"`
	Scores []FinalScore `json:"scores"`
}

package protocol

import "encoding/json"

const Version = "1.0"

// Event types fanned out to subscribed clients.
const (
	TypeLobbyState      = "LOBBY_STATE"
	TypeJoinedActive    = "JOINED_ACTIVE_GAME"
	TypePlayerReady     = "PLAYER_READY"
	TypePlayerLeft      = "PLAYER_LEFT"
	TypeGameStart       = "GAME_START"
	TypeRoundStart      = "ROUND_START"
	TypePhaseChange     = "PHASE_CHANGE"
	TypeRoundEnd        = "ROUND_END"
	TypeTokensUpdated   = "TOKENS_UPDATED"
	TypePlayerOut       = "PLAYER_OUT"
	TypeHintIssued      = "HINT_ISSUED"
	TypeGemSpawned      = "GEM_SPAWNED"
	TypeGemCollected    = "GEM_COLLECTED"
	TypeAsteroidSpawned = "ASTEROID_SPAWNED"
	TypeAsteroidHit     = "ASTEROID_HIT"
	TypeGameEnd         = "GAME_END"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

package game

import (
	"sort"
	"time"

	"semantra.io/internal/protocol"
)

func (s *Session) event(typ string, at time.Time, data any) protocol.Event {
	return protocol.Event{
		Type:            typ,
		ProtocolVersion: protocol.Version,
		Session:         s.Code,
		At:              at,
		Data:            data,
	}
}

func (s *Session) phaseEvent(at time.Time) protocol.Event {
	return s.event(protocol.TypePhaseChange, at, protocol.PhaseChange{
		Phase:    string(s.Phase),
		Deadline: s.PhaseDeadline,
	})
}

func (s *Session) lobbyEvent(at time.Time) protocol.Event {
	return s.event(protocol.TypeLobbyState, at, s.LobbyState())
}

// LobbyState projects the player roster for clients. Sorted by player id so
// the listing is stable across fan-outs.
func (s *Session) LobbyState() protocol.LobbyState {
	players := make([]protocol.PlayerInfo, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, protocol.PlayerInfo{
			ID:        p.ID,
			Nickname:  p.Nickname,
			Ready:     p.Ready,
			Score:     p.Score,
			Tokens:    p.Tokens,
			TokensOut: p.TokensOut,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return protocol.LobbyState{
		Code:        s.Code,
		HostID:      s.HostID,
		Active:      s.Active,
		Phase:       string(s.Phase),
		RoundNumber: s.RoundNumber,
		MaxRounds:   s.MaxRounds,
		Players:     players,
	}
}

func (s *Session) tokensEvent(at time.Time, p *Player) protocol.Event {
	return s.event(protocol.TypeTokensUpdated, at, protocol.TokensUpdated{
		PlayerID:  p.ID,
		Tokens:    p.Tokens,
		TokensOut: p.TokensOut,
	})
}

// FinalScores is the payload handed to the stats collaborator when the last
// round completes.
func (s *Session) FinalScores() []protocol.FinalScore {
	scores := make([]protocol.FinalScore, 0, len(s.Players))
	for _, p := range s.Players {
		scores = append(scores, protocol.FinalScore{
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Score:    p.Score,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].PlayerID < scores[j].PlayerID
	})
	return scores
}

func rewardSpawnEvent(s *Session, at time.Time, r Reward) protocol.Event {
	return s.event(protocol.TypeGemSpawned, at, protocol.EntitySpawned{
		ID:        r.ID,
		Pos:       [3]float64{r.Pos.X, r.Pos.Y, r.Pos.Z},
		Vel:       [3]float64{r.Vel.X, r.Vel.Y, r.Vel.Z},
		Size:      r.Size,
		Value:     r.Value,
		ExpiresAt: r.ExpiresAt,
	})
}

func hazardSpawnEvent(s *Session, at time.Time, h Hazard) protocol.Event {
	return s.event(protocol.TypeAsteroidSpawned, at, protocol.EntitySpawned{
		ID:        h.ID,
		Pos:       [3]float64{h.Pos.X, h.Pos.Y, h.Pos.Z},
		Vel:       [3]float64{h.Vel.X, h.Vel.Y, h.Vel.Z},
		Size:      h.Size,
		Cost:      h.Cost,
		ExpiresAt: h.ExpiresAt,
	})
}

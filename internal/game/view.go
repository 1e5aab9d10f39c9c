package game

import (
	"time"

	"semantra.io/internal/protocol"
)

// View projects the session for clients at now. The target and the
// definition map stay server-side; only active gems/asteroids are listed.
func (s *Session) View(now time.Time) protocol.SessionView {
	lobby := s.LobbyState()
	v := protocol.SessionView{
		Code:        s.Code,
		HostID:      s.HostID,
		Active:      s.Active,
		Phase:       string(s.Phase),
		Deadline:    s.PhaseDeadline,
		RoundNumber: s.RoundNumber,
		MaxRounds:   s.MaxRounds,
		Definition:  s.Definition,
		Players:     lobby.Players,
		Version:     s.Version,
	}
	if s.Phase == PhaseEnd {
		v.WinnerID = s.RoundWinnerID
		v.WinnerName = s.RoundWinnerName
	}
	for _, c := range s.Candidates {
		v.Candidates = append(v.Candidates, protocol.CandidateInfo{
			ID:    c.ID,
			Label: c.Label,
			Pos:   [3]float64{c.Pos.X, c.Pos.Y, c.Pos.Z},
		})
	}
	for _, r := range s.ActiveRewards(now) {
		v.Gems = append(v.Gems, protocol.EntitySpawned{
			ID:        r.ID,
			Pos:       [3]float64{r.Pos.X, r.Pos.Y, r.Pos.Z},
			Vel:       [3]float64{r.Vel.X, r.Vel.Y, r.Vel.Z},
			Size:      r.Size,
			Value:     r.Value,
			ExpiresAt: r.ExpiresAt,
		})
	}
	for _, h := range s.ActiveHazards(now) {
		v.Asteroids = append(v.Asteroids, protocol.EntitySpawned{
			ID:        h.ID,
			Pos:       [3]float64{h.Pos.X, h.Pos.Y, h.Pos.Z},
			Vel:       [3]float64{h.Vel.X, h.Vel.Y, h.Vel.Z},
			Size:      h.Size,
			Cost:      h.Cost,
			ExpiresAt: h.ExpiresAt,
		})
	}
	return v
}

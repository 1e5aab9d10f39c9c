package game

import (
	"time"

	"semantra.io/internal/protocol"
	"semantra.io/internal/tuning"
)

// Rand is the slice of math/rand the spawner needs; injected so tests can
// force outcomes.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Spawner rolls for new gems and asteroids on each SEARCH poll. All results
// are written into the session and committed by the caller in one store
// write; the spawner itself never touches the store.
type Spawner struct {
	Cfg   tuning.Spawns
	Rng   Rand
	NewID func() string
}

// SweepExpired drops every gem and asteroid whose expiry passed. Returns how
// many entities were removed.
func (s *Session) SweepExpired(now time.Time) int {
	removed := 0
	rewards := s.Rewards[:0]
	for _, r := range s.Rewards {
		if now.Before(r.ExpiresAt) {
			rewards = append(rewards, r)
		} else {
			removed++
		}
	}
	s.Rewards = rewards
	hazards := s.Hazards[:0]
	for _, h := range s.Hazards {
		if now.Before(h.ExpiresAt) {
			hazards = append(hazards, h)
		} else {
			removed++
		}
	}
	s.Hazards = hazards
	return removed
}

// Tick purges expired entities and rolls one spawn chance per missing slot.
// Only valid during SEARCH; callers gate on phase.
func (sp *Spawner) Tick(s *Session, now time.Time) []protocol.Event {
	s.SweepExpired(now)

	var events []protocol.Event
	for missing := sp.Cfg.GemCap - len(s.Rewards); missing > 0; missing-- {
		if sp.Rng.Float64() >= sp.Cfg.GemChance {
			continue
		}
		r := Reward{
			ID:        sp.NewID(),
			Pos:       sp.randomPos(),
			Vel:       sp.randomVel(),
			Size:      sp.randomSize(),
			Value:     sp.Cfg.GemValueMin + sp.Rng.Intn(sp.Cfg.GemValueMax-sp.Cfg.GemValueMin+1),
			SpawnedAt: now,
			ExpiresAt: now.Add(time.Duration(sp.Cfg.GemTTLSeconds) * time.Second),
		}
		s.Rewards = append(s.Rewards, r)
		events = append(events, rewardSpawnEvent(s, now, r))
	}
	for missing := sp.Cfg.AsteroidCap - len(s.Hazards); missing > 0; missing-- {
		if sp.Rng.Float64() >= sp.Cfg.AsteroidChance {
			continue
		}
		h := Hazard{
			ID:        sp.NewID(),
			Pos:       sp.randomPos(),
			Vel:       sp.randomVel(),
			Size:      sp.randomSize(),
			Cost:      sp.Cfg.AsteroidCost,
			SpawnedAt: now,
			ExpiresAt: now.Add(time.Duration(sp.Cfg.AsteroidTTLSecs) * time.Second),
		}
		s.Hazards = append(s.Hazards, h)
		events = append(events, hazardSpawnEvent(s, now, h))
	}
	return events
}

func (sp *Spawner) randomPos() Vec3 {
	r := sp.Cfg.FieldRadius
	return Vec3{
		X: (sp.Rng.Float64()*2 - 1) * r,
		Y: (sp.Rng.Float64()*2 - 1) * r,
		Z: (sp.Rng.Float64()*2 - 1) * r,
	}
}

func (sp *Spawner) randomVel() Vec3 {
	v := sp.Cfg.EntitySpeedMax
	return Vec3{
		X: (sp.Rng.Float64()*2 - 1) * v,
		Y: (sp.Rng.Float64()*2 - 1) * v,
		Z: (sp.Rng.Float64()*2 - 1) * v,
	}
}

func (sp *Spawner) randomSize() float64 {
	lo, hi := sp.Cfg.EntitySizeMin, sp.Cfg.EntitySizeMax
	return lo + sp.Rng.Float64()*(hi-lo)
}

package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	RevealSeconds int `yaml:"reveal_seconds"`
	SearchSeconds int `yaml:"search_seconds"`
	EndSeconds    int `yaml:"end_seconds"`
	MaxRounds     int `yaml:"max_rounds"`

	StartingTokens   int `yaml:"starting_tokens"`
	HintTokenCost    int `yaml:"hint_token_cost"`
	HintScorePenalty int `yaml:"hint_score_penalty"`

	WinBaseScore int `yaml:"win_base_score"`
	WinTimeBonus int `yaml:"win_time_bonus"`

	Spawns Spawns `yaml:"spawns"`

	CommitAttempts int `yaml:"commit_attempts"`

	PollRatePerSec float64 `yaml:"poll_rate_per_sec"`
	PollBurst      int     `yaml:"poll_burst"`
}

type Spawns struct {
	GemCap          int     `yaml:"gem_cap"`
	GemChance       float64 `yaml:"gem_chance"`
	GemValueMin     int     `yaml:"gem_value_min"`
	GemValueMax     int     `yaml:"gem_value_max"`
	GemTTLSeconds   int     `yaml:"gem_ttl_seconds"`
	AsteroidCap     int     `yaml:"asteroid_cap"`
	AsteroidChance  float64 `yaml:"asteroid_chance"`
	AsteroidCost    int     `yaml:"asteroid_cost"`
	AsteroidTTLSecs int     `yaml:"asteroid_ttl_seconds"`
	FieldRadius     float64 `yaml:"field_radius"`
	EntitySizeMin   float64 `yaml:"entity_size_min"`
	EntitySizeMax   float64 `yaml:"entity_size_max"`
	EntitySpeedMax  float64 `yaml:"entity_speed_max"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.fillZeros()
	return t, nil
}

func Defaults() Tuning {
	var t Tuning
	t.fillZeros()
	return t
}

// fillZeros backfills unset fields so a partial tuning.yaml stays usable.
func (t *Tuning) fillZeros() {
	d := Tuning{
		RevealSeconds:    8,
		SearchSeconds:    90,
		EndSeconds:       10,
		MaxRounds:        5,
		StartingTokens:   15,
		HintTokenCost:    5,
		HintScorePenalty: 3,
		WinBaseScore:     10,
		WinTimeBonus:     10,
		CommitAttempts:   3,
		PollRatePerSec:   4,
		PollBurst:        8,
		Spawns: Spawns{
			GemCap:          2,
			GemChance:       0.30,
			GemValueMin:     1,
			GemValueMax:     3,
			GemTTLSeconds:   12,
			AsteroidCap:     1,
			AsteroidChance:  0.15,
			AsteroidCost:    3,
			AsteroidTTLSecs: 15,
			FieldRadius:     40,
			EntitySizeMin:   0.5,
			EntitySizeMax:   1.5,
			EntitySpeedMax:  2.0,
		},
	}
	if t.RevealSeconds <= 0 {
		t.RevealSeconds = d.RevealSeconds
	}
	if t.SearchSeconds <= 0 {
		t.SearchSeconds = d.SearchSeconds
	}
	if t.EndSeconds <= 0 {
		t.EndSeconds = d.EndSeconds
	}
	if t.MaxRounds <= 0 {
		t.MaxRounds = d.MaxRounds
	}
	if t.StartingTokens <= 0 {
		t.StartingTokens = d.StartingTokens
	}
	if t.HintTokenCost <= 0 {
		t.HintTokenCost = d.HintTokenCost
	}
	if t.HintScorePenalty <= 0 {
		t.HintScorePenalty = d.HintScorePenalty
	}
	if t.WinBaseScore <= 0 {
		t.WinBaseScore = d.WinBaseScore
	}
	if t.WinTimeBonus <= 0 {
		t.WinTimeBonus = d.WinTimeBonus
	}
	if t.CommitAttempts <= 0 {
		t.CommitAttempts = d.CommitAttempts
	}
	if t.PollRatePerSec <= 0 {
		t.PollRatePerSec = d.PollRatePerSec
	}
	if t.PollBurst <= 0 {
		t.PollBurst = d.PollBurst
	}
	if t.Spawns.GemCap <= 0 {
		t.Spawns.GemCap = d.Spawns.GemCap
	}
	if t.Spawns.GemChance <= 0 {
		t.Spawns.GemChance = d.Spawns.GemChance
	}
	if t.Spawns.GemValueMin <= 0 {
		t.Spawns.GemValueMin = d.Spawns.GemValueMin
	}
	if t.Spawns.GemValueMax <= 0 {
		t.Spawns.GemValueMax = d.Spawns.GemValueMax
	}
	if t.Spawns.GemValueMin > t.Spawns.GemValueMax {
		t.Spawns.GemValueMin, t.Spawns.GemValueMax = t.Spawns.GemValueMax, t.Spawns.GemValueMin
	}
	if t.Spawns.GemTTLSeconds <= 0 {
		t.Spawns.GemTTLSeconds = d.Spawns.GemTTLSeconds
	}
	if t.Spawns.AsteroidCap <= 0 {
		t.Spawns.AsteroidCap = d.Spawns.AsteroidCap
	}
	if t.Spawns.AsteroidChance <= 0 {
		t.Spawns.AsteroidChance = d.Spawns.AsteroidChance
	}
	if t.Spawns.AsteroidCost <= 0 {
		t.Spawns.AsteroidCost = d.Spawns.AsteroidCost
	}
	if t.Spawns.AsteroidTTLSecs <= 0 {
		t.Spawns.AsteroidTTLSecs = d.Spawns.AsteroidTTLSecs
	}
	if t.Spawns.FieldRadius <= 0 {
		t.Spawns.FieldRadius = d.Spawns.FieldRadius
	}
	if t.Spawns.EntitySizeMin <= 0 {
		t.Spawns.EntitySizeMin = d.Spawns.EntitySizeMin
	}
	if t.Spawns.EntitySizeMax <= 0 {
		t.Spawns.EntitySizeMax = d.Spawns.EntitySizeMax
	}
	if t.Spawns.EntitySpeedMax <= 0 {
		t.Spawns.EntitySpeedMax = d.Spawns.EntitySpeedMax
	}
}

func (t Tuning) RevealDuration() time.Duration { return time.Duration(t.RevealSeconds) * time.Second }
func (t Tuning) SearchDuration() time.Duration { return time.Duration(t.SearchSeconds) * time.Second }
func (t Tuning) EndDuration() time.Duration    { return time.Duration(t.EndSeconds) * time.Second }

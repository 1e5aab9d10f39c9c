package game

import (
	"testing"
	"time"

	"semantra.io/internal/protocol"
)

func testSession() *Session {
	s := &Session{
		Code:           "ROOM01",
		HostID:         "p1",
		MaxRounds:      3,
		StartingTokens: 15,
		Phase:          PhaseTutorial,
		Durations: Durations{
			Reveal: 8 * time.Second,
			Search: 90 * time.Second,
			End:    10 * time.Second,
		},
		Players: map[string]*Player{
			"p1": {ID: "p1", Nickname: "ada", Tokens: 15},
			"p2": {ID: "p2", Nickname: "lin", Tokens: 15},
		},
		Candidates: []Candidate{
			{ID: "w1", Label: "gravity"},
			{ID: "w2", Label: "echo"},
		},
		Definitions: map[string]string{"w1": "def one", "w2": "def two"},
	}
	return s
}

func TestRepair_NoDeadlineNoop(t *testing.T) {
	s := testSession()
	if ev := s.Repair(time.Now()); len(ev) != 0 {
		t.Fatalf("repair on TUTORIAL emitted %d events", len(ev))
	}
	if s.Phase != PhaseTutorial {
		t.Fatalf("phase = %s, want TUTORIAL", s.Phase)
	}
}

func TestRepair_RevealToSearch(t *testing.T) {
	s := testSession()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.StartRound(t0, s.Candidates[0], "def one")
	if s.RoundNumber != 1 || s.Phase != PhaseTargetReveal {
		t.Fatalf("after StartRound: round=%d phase=%s", s.RoundNumber, s.Phase)
	}

	// Just before the deadline nothing advances.
	if ev := s.Repair(s.PhaseDeadline.Add(-time.Millisecond)); len(ev) != 0 {
		t.Fatalf("early repair advanced: %v", ev)
	}

	s.Players["p1"].HintUsed = true
	at := s.PhaseDeadline.Add(time.Millisecond)
	ev := s.Repair(at)
	if s.Phase != PhaseSearch {
		t.Fatalf("phase = %s, want SEARCH", s.Phase)
	}
	if len(ev) != 1 || ev[0].Type != protocol.TypePhaseChange {
		t.Fatalf("events = %+v", ev)
	}
	if s.Players["p1"].HintUsed {
		t.Fatal("HintUsed not reset on entering SEARCH")
	}
	// Search deadline anchors to the reveal deadline, not to the repair time.
	want := t0.Add(s.Durations.Reveal).Add(s.Durations.Search)
	if !s.PhaseDeadline.Equal(want) {
		t.Fatalf("search deadline = %v, want %v", s.PhaseDeadline, want)
	}
}

func TestRepair_SearchTimeoutEndsRoundWithNoWinner(t *testing.T) {
	s := testSession()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.StartRound(t0, s.Candidates[0], "def one")
	s.Repair(t0.Add(s.Durations.Reveal))
	s.Rewards = append(s.Rewards, Reward{ID: "g1", ExpiresAt: t0.Add(time.Hour)})

	at := s.PhaseDeadline.Add(time.Millisecond)
	ev := s.Repair(at)
	if s.Phase != PhaseEnd {
		t.Fatalf("phase = %s, want END", s.Phase)
	}
	if s.RoundWinnerID != "" {
		t.Fatalf("timeout round has winner %q", s.RoundWinnerID)
	}
	if len(s.Rewards) != 0 || len(s.Hazards) != 0 {
		t.Fatal("transients not cleared on leaving SEARCH")
	}
	var sawEnd bool
	for _, e := range ev {
		if e.Type == protocol.TypeRoundEnd {
			sawEnd = true
			end := e.Data.(protocol.RoundEnd)
			if end.WinnerID != "" || end.TargetID != "w1" {
				t.Fatalf("round end payload = %+v", end)
			}
		}
	}
	if !sawEnd {
		t.Fatalf("no ROUND_END among %+v", ev)
	}
}

func TestRepair_CascadesThroughMissedPhases(t *testing.T) {
	s := testSession()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.StartRound(t0, s.Candidates[0], "def one")

	// Nobody touched the room for an hour: reveal, search and end screens
	// all elapsed. One repair lands in WAITING_FOR_READY.
	s.Repair(t0.Add(time.Hour))
	if s.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want WAITING_FOR_READY", s.Phase)
	}
	if s.PhaseDeadline != nil {
		t.Fatalf("WAITING_FOR_READY carries deadline %v", s.PhaseDeadline)
	}
	if s.RoundWinnerID != "" || s.RoundWinnerName != "" {
		t.Fatal("winner fields survive leaving END")
	}
}

func TestRepair_Idempotent(t *testing.T) {
	s := testSession()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.StartRound(t0, s.Candidates[0], "def one")
	at := t0.Add(s.Durations.Reveal + time.Second)

	s.Repair(at)
	phase, deadline := s.Phase, *s.PhaseDeadline
	if ev := s.Repair(at); len(ev) != 0 {
		t.Fatalf("second repair emitted %v", ev)
	}
	if s.Phase != phase || !s.PhaseDeadline.Equal(deadline) {
		t.Fatalf("second repair moved state: %s %v", s.Phase, s.PhaseDeadline)
	}
}

func TestDeactivate_Terminal(t *testing.T) {
	s := testSession()
	s.Active = true
	s.RoundNumber = 3
	s.Target = &s.Candidates[0]
	s.Deactivate()
	if s.Active {
		t.Fatal("still active")
	}
	if s.Target != nil || s.Definition != "" {
		t.Fatal("target survives deactivation")
	}
	if !s.Finished() {
		t.Fatal("Finished() = false at max rounds")
	}
}

func TestAllReady(t *testing.T) {
	s := testSession()
	if s.AllReady() {
		t.Fatal("nobody readied yet")
	}
	s.Players["p1"].Ready = true
	if s.AllReady() {
		t.Fatal("one holdout left")
	}
	s.Players["p2"].Ready = true
	if !s.AllReady() {
		t.Fatal("all ready not detected")
	}
	s.Players = map[string]*Player{}
	if s.AllReady() {
		t.Fatal("empty room counts as ready")
	}
}

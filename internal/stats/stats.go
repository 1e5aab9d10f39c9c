// Package stats feeds completed sessions to the external leaderboard
// collaborator. The core only ever hands over the final per-player score
// list; cross-session aggregation lives outside this repo.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"semantra.io/internal/protocol"
)

// Log records final scores to the server log. Default sink when no
// leaderboard endpoint is configured.
type Log struct {
	Logger *log.Logger
}

func (l *Log) ReportFinal(ctx context.Context, code string, scores []protocol.FinalScore) error {
	for i, sc := range scores {
		l.Logger.Printf("session %s final #%d: %s (%s) score=%d", code, i+1, sc.Nickname, sc.PlayerID, sc.Score)
	}
	return nil
}

// HTTP posts the final score list to a leaderboard endpoint.
type HTTP struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTP(endpoint string) *HTTP {
	return &HTTP{Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Second}}
}

type report struct {
	Session string                `json:"session"`
	Scores  []protocol.FinalScore `json:"scores"`
}

func (h *HTTP) ReportFinal(ctx context.Context, code string, scores []protocol.FinalScore) error {
	body, err := json.Marshal(report{Session: code, Scores: scores})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("leaderboard endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("leaderboard endpoint: status %d", resp.StatusCode)
	}
	return nil
}

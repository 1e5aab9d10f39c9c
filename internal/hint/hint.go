// Package hint wraps the external text-generation collaborator that turns a
// target word and its riddle into a playable hint. The game treats any
// failure here as atomic: no hint, no charge.
package hint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTP posts {label, definition} to a generation endpoint and expects
// {"hint": "..."} back.
type HTTP struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTP(endpoint string) *HTTP {
	return &HTTP{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type request struct {
	Label      string `json:"label"`
	Definition string `json:"definition"`
}

type response struct {
	Hint string `json:"hint"`
}

func (h *HTTP) Hint(ctx context.Context, label, definition string) (string, error) {
	body, err := json.Marshal(request{Label: label, Definition: definition})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("hint endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hint endpoint: status %d", resp.StatusCode)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("hint endpoint: decode: %w", err)
	}
	if out.Hint == "" {
		return "", fmt.Errorf("hint endpoint: empty hint")
	}
	return out.Hint, nil
}

// Static is the no-collaborator fallback: a fixed template over the
// definition. Keeps dev servers and tests independent of the endpoint.
type Static struct{}

func (Static) Hint(ctx context.Context, label, definition string) (string, error) {
	if len(label) == 0 {
		return "", fmt.Errorf("empty label")
	}
	return fmt.Sprintf("It starts with %q and has %d letters.", string(label[0]), len(label)), nil
}

package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"semantra.io/internal/protocol"
)

func scoresFixture() []protocol.FinalScore {
	return []protocol.FinalScore{
		{PlayerID: "p1", Nickname: "ada", Score: 23},
		{PlayerID: "p2", Nickname: "lin", Score: 7},
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	l := &Log{Logger: log.New(&buf, "", 0)}
	if err := l.ReportFinal(context.Background(), "ROOM01", scoresFixture()); err != nil {
		t.Fatalf("report: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ada") || !strings.Contains(out, "score=23") {
		t.Fatalf("log output: %s", out)
	}
}

func TestHTTPReporter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Session string                `json:"session"`
			Scores  []protocol.FinalScore `json:"scores"`
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		if got.Session != "ROOM01" || len(got.Scores) != 2 || got.Scores[0].Score != 23 {
			t.Errorf("report = %+v", got)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := NewHTTP(srv.URL).ReportFinal(context.Background(), "ROOM01", scoresFixture()); err != nil {
		t.Fatalf("report: %v", err)
	}
}

func TestHTTPReporterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if err := NewHTTP(srv.URL).ReportFinal(context.Background(), "ROOM01", scoresFixture()); err == nil {
		t.Fatal("expected error on 503")
	}
}

package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

func testRecord(id string) *agent.Record {
	return &agent.Record{
		ID: id,
		Item: agent.ItemInfo{
			Kind:        "text",
			Fingerprint: "0123456789abcdef0123456789abcdef",
			Text:        "captured text",
			SizeBytes:   13,
		},
		Results: []agent.StepResult{
			{AgentID: "observer", Agent: "Observer", Text: "subject: a note\ndetail: short"},
			{AgentID: "poet", Agent: "Poet", Text: "image: rivers"},
		},
		ProducedAt: time.Now().UTC(),
	}
}

type flakySink struct {
	err      error
	accepted int
}

func (f *flakySink) Accept(_ context.Context, _ *agent.Record) error {
	if f.err != nil {
		return f.err
	}
	f.accepted++
	return nil
}
func (f *flakySink) Close() error { return nil }

func TestJSONLAppendsOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "dataset.jsonl")
	s, err := NewJSONL(path, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := s.Accept(ctx, testRecord("rec-1")); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := s.Accept(ctx, testRecord("rec-2")); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec agent.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if len(ids) != 2 || ids[0] != "rec-1" || ids[1] != "rec-2" {
		t.Fatalf("got %v, want [rec-1 rec-2]", ids)
	}
}

func TestJSONLReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.jsonl")

	for i := 0; i < 2; i++ {
		s, err := NewJSONL(path, zap.NewNop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Accept(context.Background(), testRecord(fmt.Sprintf("rec-%d", i))); err != nil {
			t.Fatalf("accept: %v", err)
		}
		s.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Count(string(data), "\n")
	if lines != 2 {
		t.Fatalf("got %d lines after reopen, want 2", lines)
	}
}

func TestRecentEvictsOldest(t *testing.T) {
	s := NewRecent(2)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Accept(ctx, testRecord(fmt.Sprintf("rec-%d", i)))
	}

	if s.Len() != 2 {
		t.Fatalf("got %d records, want 2", s.Len())
	}
	got := s.List(0)
	if got[0].ID != "rec-2" || got[1].ID != "rec-1" {
		t.Fatalf("got [%s %s], want newest first", got[0].ID, got[1].ID)
	}
	if limited := s.List(1); len(limited) != 1 || limited[0].ID != "rec-2" {
		t.Fatalf("got %v, want just the newest", limited)
	}
}

func TestMultiDeliversPastFailures(t *testing.T) {
	broken := &flakySink{err: errors.New("destination down")}
	healthy := &flakySink{}
	m := NewMulti(zap.NewNop(), broken, healthy)

	err := m.Accept(context.Background(), testRecord("rec-1"))
	if err == nil {
		t.Fatal("expected joined error from failing sink")
	}
	if healthy.accepted != 1 {
		t.Fatalf("healthy sink got %d records, want 1", healthy.accepted)
	}
}

func TestMultiNoSinks(t *testing.T) {
	m := NewMulti(zap.NewNop())
	if err := m.Accept(context.Background(), testRecord("rec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	got := summarize(testRecord("rec-1"), 120)
	if !strings.HasPrefix(got, "text 01234567") {
		t.Fatalf("summary missing item identity: %q", got)
	}
	if !strings.Contains(got, "Observer: subject: a note") {
		t.Fatalf("summary missing first line of output: %q", got)
	}
	if strings.Contains(got, "detail: short") {
		t.Fatalf("summary leaked later lines: %q", got)
	}
}

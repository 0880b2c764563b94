package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Source supplies the most recent piece of content, if any. FetchLatest
// returns nil when nothing new is available; that is not an error.
type Source interface {
	FetchLatest(ctx context.Context) (*Item, error)
}

// PushSource is a single-slot mailbox fed over the API. A new offer
// overwrites whatever is waiting, so the collector always picks up the
// freshest item and stale ones simply disappear.
type PushSource struct {
	mu   sync.Mutex
	item *Item
}

// NewPushSource creates an empty mailbox.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Offer places an item in the slot, replacing any previous occupant.
func (s *PushSource) Offer(it *Item) {
	s.mu.Lock()
	s.item = it
	s.mu.Unlock()
}

// FetchLatest takes the waiting item out of the slot.
func (s *PushSource) FetchLatest(_ context.Context) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.item
	s.item = nil
	return it, nil
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// SpoolSource watches a directory and serves the newest regular file in
// it. Each file version is served once; a file is offered again only
// after its modification time changes.
type SpoolSource struct {
	dir string

	mu       sync.Mutex
	lastPath string
	lastMod  time.Time
}

// NewSpoolSource watches dir. The directory must already exist.
func NewSpoolSource(dir string) (*SpoolSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("spool dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool dir %s: not a directory", dir)
	}
	return &SpoolSource{dir: dir}, nil
}

// FetchLatest scans the directory and returns the newest file not yet
// served. Image extensions become image items, everything else is read
// as text.
func (s *SpoolSource) FetchLatest(ctx context.Context) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan spool: %w", err)
	}

	var newestPath string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newestMod = info.ModTime()
			newestPath = filepath.Join(s.dir, entry.Name())
		}
	}
	if newestPath == "" {
		return nil, nil
	}

	s.mu.Lock()
	served := s.lastPath == newestPath && s.lastMod.Equal(newestMod)
	if !served {
		s.lastPath = newestPath
		s.lastMod = newestMod
	}
	s.mu.Unlock()
	if served {
		return nil, nil
	}

	data, err := os.ReadFile(newestPath)
	if err != nil {
		return nil, fmt.Errorf("read spool file: %w", err)
	}

	if imageExtensions[strings.ToLower(filepath.Ext(newestPath))] {
		return NewImageItem(data, newestPath), nil
	}
	it := NewTextItem(string(data))
	it.Path = newestPath
	return it, nil
}

// Merged combines several sources; the first one with an item wins.
type Merged []Source

// FetchLatest polls each source in order and returns the first item.
func (m Merged) FetchLatest(ctx context.Context) (*Item, error) {
	for _, src := range m {
		it, err := src.FetchLatest(ctx)
		if err != nil {
			return nil, err
		}
		if it != nil {
			return it, nil
		}
	}
	return nil, nil
}

package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// documentExtensions are the file types the watcher will pick up.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// WatchService scans a drop directory on an interval and ingests any new
// documents it finds, so bulk scans can be fed to the pipeline without going
// through the upload endpoint.
type WatchService struct {
	ingest      *IngestService
	dir         string
	interval    time.Duration
	maxParallel int

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewWatchService creates a WatchService. dir must already exist.
func NewWatchService(ingest *IngestService, dir string, interval time.Duration, maxParallel int) *WatchService {
	return &WatchService{
		ingest:      ingest,
		dir:         dir,
		interval:    interval,
		maxParallel: maxParallel,
		seen:        make(map[string]struct{}),
	}
}

// Start performs a synchronous first scan, then rescans on the configured
// interval until ctx is cancelled.
func (s *WatchService) Start(ctx context.Context) {
	if err := s.Scan(ctx); err != nil {
		slog.Warn("watcher: initial scan failed", "dir", s.dir, "error", err)
	}

	if s.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Scan(ctx); err != nil {
					slog.Warn("watcher: scan failed", "dir", s.dir, "error", err)
				}
			}
		}
	}()
}

// Scan ingests every not-yet-seen document in the watched directory,
// scoring at most maxParallel documents concurrently. A file that fails to
// read is retried on the next scan; a file that reaches ingestion is marked
// seen regardless of routing outcome.
func (s *WatchService) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !documentExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if s.markSeen(name) {
			continue
		}

		g.Go(func() error {
			path := filepath.Join(s.dir, name)
			doc, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("watcher: read failed", "file", name, "error", err)
				s.unmarkSeen(name)
				return nil
			}

			c, err := s.ingest.Ingest(gctx, name, doc)
			if err != nil {
				slog.Error("watcher: ingest failed", "file", name, "error", err)
				s.unmarkSeen(name)
				return nil
			}
			slog.Info("watcher: document ingested", "file", name, "case_id", c.ID, "state", c.State)
			return nil
		})
	}

	return g.Wait()
}

// SeenCount returns the number of files the watcher has picked up.
func (s *WatchService) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// markSeen records the file as picked up. It returns true when the file was
// already seen.
func (s *WatchService) markSeen(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[name]; ok {
		return true
	}
	s.seen[name] = struct{}{}
	return false
}

func (s *WatchService) unmarkSeen(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, name)
}

// Package memory implements the case store and audit log in process memory.
// It backs service tests and local development without PostgreSQL; the
// compare-and-set semantics match the postgres adapter exactly.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/verigate/verigate/internal/domain"
	"github.com/verigate/verigate/internal/domain/audit"
	"github.com/verigate/verigate/internal/domain/verification"
)

// Store implements casestore.Store with a mutex-guarded map. The lock is
// held only for map access and the per-case check-and-set; unrelated cases
// never contend beyond that.
type Store struct {
	mu    sync.Mutex
	cases map[string]*verification.Case
}

// NewStore creates an empty in-memory case store.
func NewStore() *Store {
	return &Store{cases: make(map[string]*verification.Case)}
}

func (s *Store) Create(_ context.Context, c *verification.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("create case %s: id already exists", c.ID)
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*verification.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("get case %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListPending(_ context.Context) ([]verification.Case, error) {
	s.mu.Lock()
	var pending []verification.Case
	for _, c := range s.cases {
		if c.State == verification.StatePending {
			pending = append(pending, *c)
		}
	}
	s.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].SubmittedAt.Equal(pending[j].SubmittedAt) {
			return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

func (s *Store) Finalize(_ context.Context, id string, d verification.Decision) (*verification.Case, error) {
	next, err := d.Outcome.State()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("finalize case %s: %w", id, domain.ErrNotFound)
	}
	if c.State != verification.StatePending {
		return nil, &verification.ConflictError{CaseID: id, State: c.State}
	}

	c.State = next
	decision := d
	c.Decision = &decision
	resolved := d.DecidedAt
	c.ResolvedAt = &resolved

	cp := *c
	return &cp, nil
}

// AuditLog implements auditlog.Log as an append-only in-memory slice.
type AuditLog struct {
	mu      sync.Mutex
	entries []audit.Entry
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(_ context.Context, e *audit.Entry) error {
	l.mu.Lock()
	l.entries = append(l.entries, *e)
	l.mu.Unlock()
	return nil
}

func (l *AuditLog) ListByCase(_ context.Context, caseID string) ([]audit.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []audit.Entry
	for _, e := range l.entries {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *AuditLog) List(_ context.Context, limit int) ([]audit.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]audit.Entry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

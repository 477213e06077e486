package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verigate/verigate/internal/domain"
	"github.com/verigate/verigate/internal/domain/verification"
)

// Store implements casestore.Store using PostgreSQL. The decision
// finalization relies on a conditional UPDATE so the pending check and the
// terminal transition are a single atomic statement per case.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const caseColumns = `id, state, report_status, confidence_score, issues, extracted_text,
	total_text_blocks, low_confidence_blocks,
	decision_verifier, decision_outcome, decision_remarks, decided_at,
	submitted_at, resolved_at`

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func scanCase(sc scannable) (verification.Case, error) {
	var (
		c         verification.Case
		issues    []byte
		verifier  *string
		outcome   *string
		remarks   *string
		decidedAt *time.Time
	)
	err := sc.Scan(
		&c.ID, &c.State, &c.Report.Status, &c.Report.ConfidenceScore, &issues,
		&c.Report.ExtractedText, &c.Report.TotalTextBlocks, &c.Report.LowConfidenceBlocks,
		&verifier, &outcome, &remarks, &decidedAt,
		&c.SubmittedAt, &c.ResolvedAt,
	)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(issues, &c.Report.Issues); err != nil {
		return c, fmt.Errorf("unmarshal issues: %w", err)
	}
	if verifier != nil && outcome != nil && decidedAt != nil {
		c.Decision = &verification.Decision{
			VerifierID: *verifier,
			Outcome:    verification.Outcome(*outcome),
			Remarks:    derefOrEmpty(remarks),
			DecidedAt:  *decidedAt,
		}
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c *verification.Case) error {
	issues, err := json.Marshal(orEmpty(c.Report.Issues))
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	var verifier, outcome, remarks any
	var decidedAt any
	if c.Decision != nil {
		verifier = c.Decision.VerifierID
		outcome = string(c.Decision.Outcome)
		remarks = c.Decision.Remarks
		decidedAt = c.Decision.DecidedAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO cases
		 (id, state, report_status, confidence_score, issues, extracted_text,
		  total_text_blocks, low_confidence_blocks,
		  decision_verifier, decision_outcome, decision_remarks, decided_at,
		  submitted_at, resolved_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, string(c.State), string(c.Report.Status), c.Report.ConfidenceScore, issues,
		c.Report.ExtractedText, c.Report.TotalTextBlocks, c.Report.LowConfidenceBlocks,
		verifier, outcome, remarks, decidedAt,
		c.SubmittedAt, c.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("create case %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*verification.Case, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns), id)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get case %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get case %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListPending(ctx context.Context) ([]verification.Case, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM cases WHERE state = 'pending' ORDER BY submitted_at ASC, id ASC`, caseColumns))
	if err != nil {
		return nil, fmt.Errorf("list pending cases: %w", err)
	}
	defer rows.Close()

	var pending []verification.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending case: %w", err)
		}
		pending = append(pending, c)
	}
	return pending, rows.Err()
}

func (s *Store) Finalize(ctx context.Context, id string, d verification.Decision) (*verification.Case, error) {
	next, err := d.Outcome.State()
	if err != nil {
		return nil, err
	}

	// Atomic check-and-set: the WHERE clause only matches a pending case,
	// so concurrent finalizations of the same case race on a single row
	// update and exactly one wins.
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE cases
		 SET state = $2, decision_verifier = $3, decision_outcome = $4,
		     decision_remarks = $5, decided_at = $6, resolved_at = $6
		 WHERE id = $1 AND state = 'pending'
		 RETURNING %s`, caseColumns),
		id, string(next), d.VerifierID, string(d.Outcome), d.Remarks, d.DecidedAt)

	c, err := scanCase(row)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("finalize case %s: %w", id, err)
	}

	// No pending row matched: distinguish unknown from already resolved.
	var state string
	err = s.pool.QueryRow(ctx, `SELECT state FROM cases WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("finalize case %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finalize case %s: %w", id, err)
	}
	return nil, &verification.ConflictError{CaseID: id, State: verification.State(state)}
}

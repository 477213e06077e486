package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verigate/verigate/internal/domain/audit"
)

// AuditLog implements auditlog.Log using PostgreSQL. The table is
// append-only: this adapter issues INSERT and SELECT statements only.
type AuditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog creates a new AuditLog backed by the given connection pool.
func NewAuditLog(pool *pgxpool.Pool) *AuditLog {
	return &AuditLog{pool: pool}
}

// Append inserts a new entry into the audit_entries table.
func (l *AuditLog) Append(ctx context.Context, e *audit.Entry) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, case_id, action, actor, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.CaseID, string(e.Action), e.Actor, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

const auditColumns = `id, case_id, action, actor, detail, created_at`

func scanEntry(sc scannable) (audit.Entry, error) {
	var e audit.Entry
	err := sc.Scan(&e.ID, &e.CaseID, &e.Action, &e.Actor, &e.Detail, &e.CreatedAt)
	return e, err
}

// ListByCase returns all entries for the given case, oldest first.
func (l *AuditLog) ListByCase(ctx context.Context, caseID string) ([]audit.Entry, error) {
	rows, err := l.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM audit_entries WHERE case_id = $1 ORDER BY created_at ASC`, auditColumns), caseID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries for case %s: %w", caseID, err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns the most recent entries across all cases, newest first.
func (l *AuditLog) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := l.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM audit_entries ORDER BY created_at DESC LIMIT $1`, auditColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
)

// AuditRecord is one audit outcome. It never holds document bytes or text.
type AuditRecord struct {
	ID             uuid.UUID
	Filename       string
	Format         constants.Format
	Redacted       bool
	RedactionCount int
	Status         constants.AuditStatus
	FailureKind    string
	HealthScore    *int
	Report         *llm.ContractReport
	RecoveryTier   string
	TextChars      int
	CreatedAt      time.Time
}

type AuditRepository interface {
	Create(ctx context.Context, rec *AuditRecord) error
	Get(ctx context.Context, id uuid.UUID) (*AuditRecord, error)
	List(ctx context.Context, limit int) ([]AuditRecord, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditRepo struct {
	db  *DB
	log *slog.Logger
}

func NewAuditRepository(db *DB, log *slog.Logger) AuditRepository {
	if log == nil {
		log = slog.Default()
	}
	return &auditRepo{db: db, log: log}
}

const auditColumns = `id, filename, format, redacted, redaction_count, status, failure_kind,
	health_score, report_json, recovery_tier, text_chars, created_at`

// Create inserts rec, assigning an ID and CreatedAt when they are zero.
func (r *auditRepo) Create(ctx context.Context, rec *AuditRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var (
		score  sql.NullInt64
		report sql.NullString
	)
	if rec.HealthScore != nil {
		score = sql.NullInt64{Int64: int64(*rec.HealthScore), Valid: true}
	}
	if rec.Report != nil {
		b, err := json.Marshal(rec.Report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		report = sql.NullString{String: string(b), Valid: true}
	}

	q := r.db.rebind(`INSERT INTO audits (` + auditColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		rec.ID.String(), rec.Filename, string(rec.Format), boolToInt(rec.Redacted), rec.RedactionCount,
		string(rec.Status), rec.FailureKind, score, report, rec.RecoveryTier, rec.TextChars,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		r.log.Error("audit insert failed", "audit_id", rec.ID, "err", err)
		return fmt.Errorf("%w: insert audit: %v", common.ErrDatabase, err)
	}
	r.log.Info("audit recorded", "audit_id", rec.ID, "status", rec.Status, "failure_kind", rec.FailureKind)
	return nil
}

func (r *auditRepo) Get(ctx context.Context, id uuid.UUID) (*AuditRecord, error) {
	q := r.db.rebind(`SELECT ` + auditColumns + ` FROM audits WHERE id = ?`)
	rec, err := scanAudit(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get audit: %v", common.ErrDatabase, err)
	}
	return rec, nil
}

// List returns the most recent audits first.
func (r *auditRepo) List(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := r.db.rebind(`SELECT ` + auditColumns + ` FROM audits ORDER BY created_at DESC, id LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list audits: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan audit: %v", common.ErrDatabase, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list audits: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// PurgeOlderThan deletes audits created before cutoff and returns how many were removed.
func (r *auditRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.db.rebind(`DELETE FROM audits WHERE created_at < ?`)
	res, err := r.db.ExecContext(ctx, q, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: purge audits: %v", common.ErrDatabase, err)
	}
	n, _ := res.RowsAffected()
	r.log.Info("audits purged", "cutoff", cutoff, "deleted", n)
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(row rowScanner) (*AuditRecord, error) {
	var (
		rec       AuditRecord
		id        string
		format    string
		status    string
		redacted  int
		score     sql.NullInt64
		report    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &rec.Filename, &format, &redacted, &rec.RedactionCount, &status, &rec.FailureKind,
		&score, &report, &rec.RecoveryTier, &rec.TextChars, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad audit id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Format = constants.Format(format)
	rec.Status = constants.AuditStatus(status)
	rec.Redacted = redacted != 0
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	if score.Valid {
		s := int(score.Int64)
		rec.HealthScore = &s
	}
	if report.Valid {
		var cr llm.ContractReport
		if err := json.Unmarshal([]byte(report.String), &cr); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		rec.Report = &cr
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
	"goalplan/pkg/platform/tx"
)

// PostgresStore persists audit records in the audit_records table. The table
// carries no UPDATE or DELETE path; uniqueness on the primary key enforces
// write-once at the database level.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// execer lets Append join a caller-managed transaction from the context.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *PostgresStore) Append(ctx context.Context, record CalculationAuditRecord) error {
	query := `
		INSERT INTO audit_records (
			id, user_id, tax_year, created_at, engine_version,
			config_versions, request_hash, request, intermediates, result
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	configVersions, err := marshalConfigVersions(record.ConfigVersions)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, query,
		record.ID.String(),
		record.UserID.String(),
		string(record.TaxYear),
		record.CreatedAt,
		record.EngineVersion,
		configVersions,
		record.RequestHash,
		[]byte(record.Request),
		[]byte(record.Intermediates),
		[]byte(record.Result),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return dErrors.Newf(dErrors.CodeConflict, "audit record %s already written", record.ID)
	}
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.AuditRecordID) (CalculationAuditRecord, error) {
	query := `
		SELECT id, user_id, tax_year, created_at, engine_version,
		       config_versions, request_hash, request, intermediates, result
		FROM audit_records
		WHERE id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, recordID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return CalculationAuditRecord{}, dErrors.Newf(dErrors.CodeNotFound, "audit record %s not found", recordID)
	}
	if err != nil {
		return CalculationAuditRecord{}, fmt.Errorf("select audit record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, year id.TaxYear) ([]CalculationAuditRecord, error) {
	query := `
		SELECT id, user_id, tax_year, created_at, engine_version,
		       config_versions, request_hash, request, intermediates, result
		FROM audit_records
		WHERE user_id = $1 AND tax_year = $2
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String(), string(year))
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []CalculationAuditRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (CalculationAuditRecord, error) {
	var (
		record         CalculationAuditRecord
		rawID, rawUser string
		rawYear        string
		configVersions []byte
	)
	err := row.Scan(
		&rawID, &rawUser, &rawYear, &record.CreatedAt, &record.EngineVersion,
		&configVersions, &record.RequestHash,
		(*[]byte)(&record.Request), (*[]byte)(&record.Intermediates), (*[]byte)(&record.Result),
	)
	if err != nil {
		return CalculationAuditRecord{}, err
	}
	if record.ID, err = id.ParseAuditRecordID(rawID); err != nil {
		return CalculationAuditRecord{}, err
	}
	if record.UserID, err = id.ParseUserID(rawUser); err != nil {
		return CalculationAuditRecord{}, err
	}
	record.TaxYear = id.TaxYear(rawYear)
	if record.ConfigVersions, err = unmarshalConfigVersions(configVersions); err != nil {
		return CalculationAuditRecord{}, err
	}
	return record, nil
}

func marshalConfigVersions(versions map[string]string) ([]byte, error) {
	out, err := json.Marshal(versions)
	if err != nil {
		return nil, fmt.Errorf("marshal config versions: %w", err)
	}
	return out, nil
}

func unmarshalConfigVersions(raw []byte) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal config versions: %w", err)
	}
	return out, nil
}

// Schema is the audit table DDL, applied by migrations or test containers.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	tax_year TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	engine_version TEXT NOT NULL,
	config_versions JSONB NOT NULL,
	request_hash TEXT NOT NULL,
	request JSONB NOT NULL,
	intermediates JSONB NOT NULL,
	result JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_records_user_year ON audit_records (user_id, tax_year, created_at);
`

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/report"
)

const runColumns = `id, tax_registration_number, fiscal_year, valid, created_at`

const findingColumns = `severity, table_name, document, line, field, message`

const tableTotalsColumns = `table_name, valid,
	declared_entries, declared_debit, declared_credit, declared_lines, declared_quantity,
	recomputed_entries, recomputed_debit, recomputed_credit, recomputed_lines, recomputed_quantity`

const documentTotalsColumns = `table_name, number, valid,
	net_total, tax_payable, gross_total, gross_from_currency, lines`

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create stores the run with its findings and reconciled totals in one
// transaction.
func (r *RunRepository) Create(ctx context.Context, run *domain.ValidationRun) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO validation_runs (
				id, tax_registration_number, fiscal_year, valid, error_count, warning_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.TaxRegistrationNumber, run.FiscalYear, run.Valid,
			run.ErrorCount(), run.WarningCount(), run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if err := insertFindings(ctx, tx, run.ID, run.Entries); err != nil {
			return err
		}
		return insertTables(ctx, tx, run.ID, run.Tables)
	})
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func insertFindings(ctx context.Context, tx *sql.Tx, runID uuid.UUID, entries []report.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("validation_findings",
		"run_id", "seq", "severity", "table_name", "document", "line", "field", "message"))
	if err != nil {
		return fmt.Errorf("insertFindings: prepare: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, i, string(e.Severity), e.Table, e.Document, e.Line, e.Field, e.Message); err != nil {
			return fmt.Errorf("insertFindings: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("insertFindings: flush: %w", err)
	}
	return nil
}

func insertTables(ctx context.Context, tx *sql.Tx, runID uuid.UUID, tables []domain.TableResult) error {
	for i, t := range tables {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO table_totals (
				run_id, position, `+tableTotalsColumns+`
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			runID, i, t.Table, t.Valid,
			t.Declared.NumberOfEntries, t.Declared.TotalDebit, t.Declared.TotalCredit,
			t.Declared.TotalLines, t.Declared.TotalQuantityIssued,
			t.Recomputed.NumberOfEntries, t.Recomputed.TotalDebit, t.Recomputed.TotalCredit,
			t.Recomputed.TotalLines, t.Recomputed.TotalQuantityIssued,
		)
		if err != nil {
			return fmt.Errorf("insertTables: %s: %w", t.Table, err)
		}
	}

	var docs int
	for _, t := range tables {
		docs += len(t.Documents)
	}
	if docs == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("document_totals",
		"run_id", "table_name", "position", "number", "valid",
		"net_total", "tax_payable", "gross_total", "gross_from_currency", "lines"))
	if err != nil {
		return fmt.Errorf("insertTables: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range tables {
		for i, d := range t.Documents {
			lines, err := json.Marshal(d.Recomputed.Lines)
			if err != nil {
				return fmt.Errorf("insertTables: %s: lines: %w", d.Number, err)
			}
			var fromCurrency decimal.NullDecimal
			if d.Recomputed.GrossFromCurrency != nil {
				fromCurrency = decimal.NewNullDecimal(*d.Recomputed.GrossFromCurrency)
			}
			// COPY sends []byte as bytea, so the JSON goes as text.
			_, err = stmt.ExecContext(ctx, runID, t.Table, i, d.Number, d.Valid,
				d.Recomputed.NetTotal, d.Recomputed.TaxPayable, d.Recomputed.GrossTotal,
				fromCurrency, string(lines))
			if err != nil {
				return fmt.Errorf("insertTables: %s: %w", d.Number, err)
			}
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("insertTables: flush: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRun, error) {
	conn := r.db.Conn()

	row := conn.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM validation_runs WHERE id = $1`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	if run.Entries, err = r.findings(ctx, id); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	if run.Tables, err = r.tables(ctx, id); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return run, nil
}

func (r *RunRepository) findings(ctx context.Context, runID uuid.UUID) ([]report.Entry, error) {
	rows, err := r.db.Conn().QueryContext(ctx,
		`SELECT `+findingColumns+` FROM validation_findings WHERE run_id = $1 ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("findings: %w", err)
	}
	defer rows.Close()

	var entries []report.Entry
	for rows.Next() {
		e, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("findings: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("findings: %w", err)
	}
	return entries, nil
}

func (r *RunRepository) tables(ctx context.Context, runID uuid.UUID) ([]domain.TableResult, error) {
	rows, err := r.db.Conn().QueryContext(ctx,
		`SELECT `+tableTotalsColumns+` FROM table_totals WHERE run_id = $1 ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.TableResult
	byName := make(map[string]int)
	for rows.Next() {
		t, err := scanTableTotals(rows)
		if err != nil {
			return nil, fmt.Errorf("tables: scan: %w", err)
		}
		byName[t.Table] = len(tables)
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}

	docRows, err := r.db.Conn().QueryContext(ctx,
		`SELECT `+documentTotalsColumns+` FROM document_totals WHERE run_id = $1 ORDER BY table_name, position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("tables: documents: %w", err)
	}
	defer docRows.Close()

	for docRows.Next() {
		table, d, err := scanDocumentTotals(docRows)
		if err != nil {
			return nil, fmt.Errorf("tables: documents: scan: %w", err)
		}
		i, ok := byName[table]
		if !ok {
			return nil, fmt.Errorf("tables: document %s references unknown table %s", d.Number, table)
		}
		tables[i].Documents = append(tables[i].Documents, *d)
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("tables: documents: %w", err)
	}
	return tables, nil
}

// DeleteOlderThan removes runs created before cutoff; findings and totals go
// with them.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.Conn().ExecContext(ctx,
		`DELETE FROM validation_runs WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: rows affected: %w", err)
	}
	return n, nil
}

func scanRun(s scanner) (*domain.ValidationRun, error) {
	var run domain.ValidationRun
	err := s.Scan(&run.ID, &run.TaxRegistrationNumber, &run.FiscalYear, &run.Valid, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

func scanFinding(s scanner) (*report.Entry, error) {
	var e report.Entry
	var line sql.NullInt64
	err := s.Scan(&e.Severity, &e.Table, &e.Document, &line, &e.Field, &e.Message)
	if err != nil {
		return nil, err
	}
	if line.Valid {
		n := int(line.Int64)
		e.Line = &n
	}
	return &e, nil
}

func scanTableTotals(s scanner) (*domain.TableResult, error) {
	var t domain.TableResult
	err := s.Scan(&t.Table, &t.Valid,
		&t.Declared.NumberOfEntries, &t.Declared.TotalDebit, &t.Declared.TotalCredit,
		&t.Declared.TotalLines, &t.Declared.TotalQuantityIssued,
		&t.Recomputed.NumberOfEntries, &t.Recomputed.TotalDebit, &t.Recomputed.TotalCredit,
		&t.Recomputed.TotalLines, &t.Recomputed.TotalQuantityIssued,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanDocumentTotals(s scanner) (string, *domain.DocumentResult, error) {
	var table string
	var d domain.DocumentResult
	var fromCurrency decimal.NullDecimal
	var lines []byte

	err := s.Scan(&table, &d.Number, &d.Valid,
		&d.Recomputed.NetTotal, &d.Recomputed.TaxPayable, &d.Recomputed.GrossTotal,
		&fromCurrency, &lines,
	)
	if err != nil {
		return "", nil, err
	}

	if fromCurrency.Valid {
		d.Recomputed.GrossFromCurrency = &fromCurrency.Decimal
	}
	d.Recomputed.Lines = make(map[int]decimal.Decimal)
	if err := json.Unmarshal(lines, &d.Recomputed.Lines); err != nil {
		return "", nil, fmt.Errorf("lines: %w", err)
	}
	return table, &d, nil
}

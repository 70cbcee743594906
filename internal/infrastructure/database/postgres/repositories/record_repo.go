// Package repositories provides the PostgreSQL sink for extracted records.
package repositories

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// recordColumns is the column list of the pre-existing target table, in
// insert-parameter order.
var recordColumns = []string{
	"doc_id", "doc_number",
	"title_en", "title_de", "title_fr",
	"lang", "country",
	"abstract", "description", "claims",
	"ipc_classifications", "cpc_classifications", "int_classifications",
	"international_application_number",
	"applicants", "inventors", "representatives", "proprietors",
	"date_publication", "year_publication", "date_filing", "year_filing",
	"priority_number", "priority_date",
	"correction_code", "correction_description",
	"references_cited",
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordRepository writes extracted records into one table.  Each batch runs
// in its own transaction; a failure rolls that batch back and the caller
// continues with the next one.
type RecordRepository struct {
	pool  *pgxpool.Pool
	table string
	stmt  string
	log   logging.Logger
}

// NewRecordRepository targets the named pre-existing table.  The table name
// comes from configuration, so it is validated as a bare SQL identifier
// before interpolation.
func NewRecordRepository(pool *pgxpool.Pool, table string, log logging.Logger) (*RecordRepository, error) {
	if !identPattern.MatchString(table) {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "invalid table name "+table)
	}
	return &RecordRepository{
		pool:  pool,
		table: table,
		stmt:  buildInsertStatement(table),
		log:   log.Named("records"),
	}, nil
}

func buildInsertStatement(table string) string {
	cols := ""
	params := ""
	for i, c := range recordColumns {
		if i > 0 {
			cols += ", "
			params += ", "
		}
		cols += c
		params += fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (doc_id) DO NOTHING",
		table, cols, params)
}

// InsertBatch writes one batch inside a single transaction.  On conflict the
// existing row wins and the insert is a no-op; rows are never updated.
func (r *RecordRepository) InsertBatch(ctx context.Context, records []patent.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "begin batch transaction")
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		batch.Queue(r.stmt,
			rec.DocID, rec.DocNumber,
			rec.TitleEN, rec.TitleDE, rec.TitleFR,
			rec.Lang, rec.Country,
			rec.Abstract, rec.Description, rec.Claims,
			rec.IPCClassifications, rec.CPCClassifications, rec.IntClassifications,
			rec.InternationalApplicationNumber,
			rec.Applicants, rec.Inventors, rec.Representatives, rec.Proprietors,
			rec.DatePublication, rec.YearPublication, rec.DateFiling, rec.YearFiling,
			rec.PriorityNumber, rec.PriorityDate,
			rec.CorrectionCode, rec.CorrectionDescription,
			rec.ReferencesCited,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "execute batch insert")
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "close batch results")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "commit batch")
	}
	r.log.Debug("batch committed", logging.Int("rows", len(records)))
	return nil
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/observability"
)

// Creator persists one validated record.
type Creator interface {
	Create(ctx context.Context, in domain.RecordInput) (domain.CaseRecord, error)
}

// RowError explains why a row was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("row %d: %s %s", e.Line, e.Field, e.Reason)
}

// Report summarizes an import or a dry run.
type Report struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected"`
}

// Validate checks every row without writing. Imported counts the rows that would be created.
func Validate(rows []Row) Report {
	var rep Report
	for _, row := range rows {
		if _, err := domain.ParseInput(row.Input); err != nil {
			rep.Rejected = append(rep.Rejected, rowError(row.Line, err))
			continue
		}
		rep.Imported++
	}
	return rep
}

// Importer creates records row by row through a Creator.
type Importer struct {
	creator Creator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Importer.
func New(creator Creator, logger *slog.Logger, metrics *observability.Metrics) *Importer {
	return &Importer{creator: creator, logger: logger, metrics: metrics}
}

// Import creates each valid row. Rows rejected by validation are collected in
// the report; any other failure stops the import and is returned alongside the
// partial report.
func (i *Importer) Import(ctx context.Context, rows []Row) (Report, error) {
	var rep Report
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		_, err := i.creator.Create(ctx, row.Input)
		switch {
		case err == nil:
			rep.Imported++
			i.metrics.ImportRows.WithLabelValues("imported").Inc()
		case errors.Is(err, domain.ErrValidationRejected):
			rep.Rejected = append(rep.Rejected, rowError(row.Line, err))
			i.metrics.ImportRows.WithLabelValues("rejected").Inc()
			i.logger.Debug("import row rejected", "line", row.Line, "error", err)
		default:
			return rep, fmt.Errorf("import row %d: %w", row.Line, err)
		}
	}

	i.logger.Info("import finished", "imported", rep.Imported, "rejected", len(rep.Rejected))
	return rep, nil
}

func rowError(line int, err error) RowError {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return RowError{Line: line, Field: verr.Field, Reason: verr.Reason}
	}
	return RowError{Line: line, Reason: err.Error()}
}

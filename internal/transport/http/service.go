// Package http exposes the dataset service over a JSON HTTP API.
package http

import (
	"context"
	"io"

	"evalpulse/internal/analytics"
	"evalpulse/internal/services"
	"evalpulse/pkg/contracts/domain"
)

// DatasetService is the service surface the handlers depend on. Kept as an
// interface so handler tests can substitute a mock.
type DatasetService interface {
	Ingest(ctx context.Context, paths []string) (*domain.BatchReport, error)
	IngestDir(ctx context.Context) (*domain.BatchReport, error)
	ImportCSV(ctx context.Context, path string) (*domain.BatchReport, error)
	Report(ctx context.Context) (*domain.BatchReport, error)
	Records(ctx context.Context, filter services.Filter) ([]domain.Record, error)
	Timelines(ctx context.Context, groupBy analytics.GroupBy, filter services.Filter) ([]domain.TimeSeries, error)
	Trends(ctx context.Context, groupBy analytics.GroupBy, filter services.Filter) ([]domain.TrendMetric, error)
	Insights(ctx context.Context, filter services.Filter) (*domain.InsightSummary, error)
	Themes(ctx context.Context) []domain.Theme
	Programs(ctx context.Context) []domain.ProgramInfo
	ExportCSV(ctx context.Context, w io.Writer, filter services.Filter) (int, error)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evalpulse/internal/analytics"
	apperrors "evalpulse/internal/errors"
	"evalpulse/internal/services"
	"evalpulse/pkg/contracts/domain"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Ingest(ctx context.Context, paths []string) (*domain.BatchReport, error) {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}

func (m *mockService) IngestDir(ctx context.Context) (*domain.BatchReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}

func (m *mockService) ImportCSV(ctx context.Context, path string) (*domain.BatchReport, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}

func (m *mockService) Report(ctx context.Context) (*domain.BatchReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}

func (m *mockService) Records(ctx context.Context, filter services.Filter) ([]domain.Record, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *mockService) Timelines(ctx context.Context, groupBy analytics.GroupBy, filter services.Filter) ([]domain.TimeSeries, error) {
	args := m.Called(ctx, groupBy, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimeSeries), args.Error(1)
}

func (m *mockService) Trends(ctx context.Context, groupBy analytics.GroupBy, filter services.Filter) ([]domain.TrendMetric, error) {
	args := m.Called(ctx, groupBy, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendMetric), args.Error(1)
}

func (m *mockService) Insights(ctx context.Context, filter services.Filter) (*domain.InsightSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InsightSummary), args.Error(1)
}

func (m *mockService) Themes(ctx context.Context) []domain.Theme {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Theme)
}

func (m *mockService) Programs(ctx context.Context) []domain.ProgramInfo {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ProgramInfo)
}

func (m *mockService) ExportCSV(ctx context.Context, w io.Writer, filter services.Filter) (int, error) {
	args := m.Called(ctx, w, filter)
	return args.Int(0), args.Error(1)
}

func serve(t *testing.T, svc DatasetService, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()

	NewHandler(svc, nil).Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Report", mock.Anything).Return(nil, apperrors.NewNotFoundError("dataset"))

	rec := serve(t, svc, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotZero(t, resp.Timestamp)
	assert.Nil(t, resp.Dataset)
}

func TestHealthHandlerWithDataset(t *testing.T) {
	svc := &mockService{}
	svc.On("Report", mock.Anything).
		Return(&domain.BatchReport{BatchID: "b-9", TotalRecords: 42}, nil)

	rec := serve(t, svc, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Dataset)
	assert.Equal(t, "b-9", resp.Dataset.BatchID)
	assert.Equal(t, 42, resp.Dataset.Records)
}

func TestRecordsHandler(t *testing.T) {
	svc := &mockService{}
	rating := 3.2
	svc.On("Records", mock.Anything, services.Filter{Program: "BM (Büromanagement)"}).
		Return([]domain.Record{{QuestionID: "7.1", Rating: &rating}}, nil)

	rec := serve(t, svc, http.MethodGet, "/records?program=BM+%28B%C3%BCromanagement%29", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int             `json:"count"`
		Records []domain.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "7.1", resp.Records[0].QuestionID)

	svc.AssertExpectations(t)
}

func TestRecordsHandlerNoDataset(t *testing.T) {
	svc := &mockService{}
	svc.On("Records", mock.Anything, services.Filter{}).
		Return(nil, apperrors.NewNotFoundError("dataset"))

	rec := serve(t, svc, http.MethodGet, "/records", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
}

func TestRecordsHandlerInvalidFilter(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad evaluation type", "/records?evaluation_type=midterm"},
		{"bad question type", "/records?question_type=essay"},
		{"bad date", "/records?from=November"},
		{"bad segment", "/records?segment=height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &mockService{}, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTrendsHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Trends", mock.Anything, analytics.GroupByQuestion, services.Filter{}).
		Return([]domain.TrendMetric{{Key: "7.1", Direction: domain.TrendImproving}}, nil)

	rec := serve(t, svc, http.MethodGet, "/trends?group_by=question", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"group_by":"question"`)
	assert.Contains(t, rec.Body.String(), "improving")

	svc.AssertExpectations(t)
}

func TestTrendsHandlerDefaultsToTheme(t *testing.T) {
	svc := &mockService{}
	svc.On("Trends", mock.Anything, analytics.GroupByTheme, services.Filter{}).
		Return([]domain.TrendMetric{}, nil)

	rec := serve(t, svc, http.MethodGet, "/trends", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestTrendsHandlerInvalidGroupBy(t *testing.T) {
	rec := serve(t, &mockService{}, http.MethodGet, "/trends?group_by=weekday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Ingest", mock.Anything, []string{"data/BM_2024.11.xlsx"}).
		Return(&domain.BatchReport{BatchID: "b-1", TotalRecords: 12}, nil)

	body := bytes.NewBufferString(`{"files":["data/BM_2024.11.xlsx"]}`)
	rec := serve(t, svc, http.MethodPost, "/ingest", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "b-1")

	svc.AssertExpectations(t)
}

func TestIngestHandlerEmptyBodyUsesInputDir(t *testing.T) {
	svc := &mockService{}
	svc.On("IngestDir", mock.Anything).
		Return(&domain.BatchReport{BatchID: "b-2"}, nil)

	rec := serve(t, svc, http.MethodPost, "/ingest", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "b-2")

	svc.AssertExpectations(t)
}

func TestImportHandlerRequiresFile(t *testing.T) {
	rec := serve(t, &mockService{}, http.MethodPost, "/import", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsightsHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Insights", mock.Anything, services.Filter{}).
		Return(&domain.InsightSummary{TotalQuestions: 21, TotalPeriods: 3}, nil)

	rec := serve(t, svc, http.MethodGet, "/insights", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.InsightSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 21, resp.TotalQuestions)
	assert.Equal(t, 3, resp.TotalPeriods)
}

func TestThemesHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Themes", mock.Anything).
		Return([]domain.Theme{{Label: "Unterricht", Color: "#e74c3c"}})

	rec := serve(t, svc, http.MethodGet, "/themes", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unterricht")
}

func TestExportHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("ExportCSV", mock.Anything, mock.Anything, services.Filter{}).
		Run(func(args mock.Arguments) {
			w := args.Get(1).(io.Writer)
			_, err := w.Write([]byte("date,program\n"))
			require.NoError(t, err)
		}).
		Return(1, nil)

	rec := serve(t, svc, http.MethodGet, "/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "date,program")
}

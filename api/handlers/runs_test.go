package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/repository"
)

type stubReportRepo struct {
	reports map[string]*models.RunReport
}

func (r *stubReportRepo) GetByRunDate(ctx context.Context, runDate string) (*models.RunReport, error) {
	return r.reports[runDate], nil
}

func (r *stubReportRepo) Save(ctx context.Context, report *models.RunReport) error {
	r.reports[report.RunDate] = report
	return nil
}

type stubStorage struct {
	objects map[string][]byte
}

func (s *stubStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	return nil
}

func (s *stubStorage) Download(ctx context.Context, key string) ([]byte, error) {
	return s.objects[key], nil
}

func (s *stubStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *stubStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *stubStorage) GetPublicURL(key string) string {
	return "https://storage.test/" + key
}

func newTestRouter(reports *stubReportRepo, store *stubStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	log.InitLogger()

	handler := NewRunsHandler(log, &repository.Repositories{RunReportRepository: reports}, nil, store)

	r := gin.New()
	r.GET("/v1/runs/:date", handler.GetRunReport())
	r.GET("/v1/runs/:date/report", handler.DownloadRunReport())
	r.GET("/v1/runs/:date/documents", handler.ListRunDocuments())
	return r
}

func TestDownloadRunReport_StreamsStoredFile(t *testing.T) {
	// Arrange
	reports := &stubReportRepo{reports: map[string]*models.RunReport{
		"2026-08-31": {RunDate: "2026-08-31", ReportStorageKey: "reports/2026-08-31.xlsx"},
	}}
	store := &stubStorage{objects: map[string][]byte{
		"reports/2026-08-31.xlsx": []byte("workbook bytes"),
	}}
	router := newTestRouter(reports, store)

	// Act
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/2026-08-31/report", nil)
	router.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "workbook bytes", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	require.Contains(t, w.Header().Get("Content-Disposition"), "2026-08-31.xlsx")
}

func TestDownloadRunReport_NotFoundForUnknownDate(t *testing.T) {
	// Arrange
	reports := &stubReportRepo{reports: map[string]*models.RunReport{}}
	store := &stubStorage{objects: map[string][]byte{}}
	router := newTestRouter(reports, store)

	// Act
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/2026-08-31/report", nil)
	router.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRunDocuments_ReturnsPartitionedKeys(t *testing.T) {
	// Arrange
	reports := &stubReportRepo{reports: map[string]*models.RunReport{}}
	store := &stubStorage{objects: map[string][]byte{
		"accepted/2026-08-31/fp1.pdf":              []byte("a"),
		"rejected/2026-08-31/fp2_invalid_type.txt": []byte("b"),
		"accepted/2026-08-30/fp3.pdf":              []byte("c"),
	}}
	router := newTestRouter(reports, store)

	// Act
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/2026-08-31/documents", nil)
	router.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "accepted/2026-08-31/fp1.pdf")
	require.Contains(t, w.Body.String(), "rejected/2026-08-31/fp2_invalid_type.txt")
	require.NotContains(t, w.Body.String(), "2026-08-30")
}

func TestListRunDocuments_RejectsMalformedDate(t *testing.T) {
	// Arrange
	router := newTestRouter(
		&stubReportRepo{reports: map[string]*models.RunReport{}},
		&stubStorage{objects: map[string][]byte{}},
	)

	// Act
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/31-08-2026/documents", nil)
	router.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusBadRequest, w.Code)
}

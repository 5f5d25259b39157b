package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"footfall/internal"
	"footfall/internal/events"
	"footfall/internal/testsupport"
)

var base = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db, internal.MountAppRoutes)
	return app, db
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/_health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["db_status"])
}

func csvUploadRequest(t *testing.T, csvBody string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "events.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadEventsStoresRows(t *testing.T) {
	app, db := newTestApp(t)

	csvBody := "person_id,camera_id,camera_description,type,utc_time_started_readable,utc_time_ended_readable\n" +
		"p1,cam1,Main Entrance,entry,2025-06-10 10:00:00,2025-06-10 10:00:00\n" +
		"p1,cam1,Main Entrance,exit,2025-06-10 10:05:00,2025-06-10 10:05:00\n"

	resp, err := app.Test(csvUploadRequest(t, csvBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		UploadID      string `json:"upload_id"`
		ProcessedRows int64  `json:"processed_rows"`
	}
	decodeBody(t, resp, &result)
	assert.NotEmpty(t, result.UploadID)
	assert.Equal(t, int64(2), result.ProcessedRows)

	var count int64
	db.Model(&events.AppearanceEvent{}).Where("upload_id = ?", result.UploadID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestUploadEventsMissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadEventsRejectsBadHeader(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(csvUploadRequest(t, "person_id,type\np1,entry\n"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "INVALID_CSV", body["code"])
}

func TestReconstructEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateEntryExitPair(t, db, "p1", "cam1", base, base.Add(5*time.Minute))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dwell/reconstruct", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		SessionsProcessed int64 `json:"sessions_processed"`
		TotalDwellSeconds int64 `json:"total_dwell_seconds"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, int64(1), result.SessionsProcessed)
	assert.Equal(t, int64(300), result.TotalDwellSeconds)
}

func TestReconstructRejectsBadWindow(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dwell/reconstruct?from=not-a-date", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDwellAnalyticsByCamera(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(time.Minute))
	testsupport.CreateAppearanceEvent(t, db, "p2", "cam1", base, base.Add(2*time.Minute))

	url := "/api/v1/dwell/analytics?group_by=camera&from=2025-06-10&to=2025-06-11"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Dimension string `json:"dimension"`
		Groups    []struct {
			Key   string `json:"key"`
			Count int64  `json:"count"`
		} `json:"groups"`
	}
	decodeBody(t, resp, &report)
	assert.Equal(t, "camera", report.Dimension)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, int64(2), report.Groups[0].Count)
}

func TestDwellAnalyticsRejectsUnknownDimension(t *testing.T) {
	app, _ := newTestApp(t)

	url := "/api/v1/dwell/analytics?group_by=shoe_size"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "INVALID_ANALYTICS_REQUEST", body["code"])
}

func TestDwellAnalyticsGenderBreakdown(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(time.Minute),
		testsupport.WithDemographics("male", "25-34"))
	testsupport.CreateAppearanceEvent(t, db, "p2", "cam1", base, base.Add(time.Minute),
		testsupport.WithDemographics("female", "25-34"))

	url := "/api/v1/dwell/analytics?breakdown=gender&from=2025-06-10&to=2025-06-11"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Breakdown string `json:"breakdown"`
		Groups    []struct {
			Key string `json:"key"`
		} `json:"groups"`
	}
	decodeBody(t, resp, &report)
	assert.Equal(t, "gender", report.Breakdown)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "female", report.Groups[0].Key)
}

func TestKPIEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(time.Minute))
	testsupport.CreateSession(t, db, "p1", "cam1", base, 60)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/kpi", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var metrics struct {
		UniqueVisitors int64 `json:"unique_visitors"`
		SessionCount   int64 `json:"session_count"`
	}
	decodeBody(t, resp, &metrics)
	assert.Equal(t, int64(1), metrics.UniqueVisitors)
	assert.Equal(t, int64(1), metrics.SessionCount)
}

func TestFootTrafficRejectsUnknownBucket(t *testing.T) {
	app, _ := newTestApp(t)

	url := "/api/v1/analytics/foot-traffic?bucket=fortnight"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListCamerasEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(time.Minute))
	testsupport.CreateAppearanceEvent(t, db, "p2", "cam2", base, base.Add(time.Minute),
		testsupport.WithCameraDescription("Back Door"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cameras", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Cameras []struct {
			CameraID string `json:"camera_id"`
		} `json:"cameras"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Cameras, 2)
}

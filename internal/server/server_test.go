// ABOUTME: Tests for the HTTP endpoints using httptest
// ABOUTME: A fake planner stands in for the pipeline
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/models"
)

type fakePlanner struct {
	plan string
	err  error
	got  []models.Document
}

func (f *fakePlanner) Run(_ context.Context, docs []models.Document) (*core.Result, error) {
	f.got = docs
	if f.err != nil {
		return nil, f.err
	}
	return &core.Result{RunID: "run_test", Plan: f.plan}, nil
}

const testPlan = "# WebMethods to Boomi Migration Plan\n\n## Executive Summary"

func multipartBody(t *testing.T, files map[string]string, order ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(t *testing.T, planner Planner, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	New(planner, "1.0.0", nil).Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	rec := serve(t, &fakePlanner{}, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.0.0", body["version"])
	assert.Contains(t, body["message"], ServiceName)
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakePlanner{}, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["planner_initialized"])

	rec = serve(t, nil, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["planner_initialized"])
}

func TestUnknownPathIsNotFound(t *testing.T) {
	rec := serve(t, &fakePlanner{}, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMigrate_ReturnsPlanAttachment(t *testing.T) {
	planner := &fakePlanner{plan: testPlan}
	body, contentType := multipartBody(t, map[string]string{
		"OrderFlow.html": "<html><body>BRANCH on status</body></html>",
		"notes.txt":      "MAP order to invoice",
	}, "OrderFlow.html", "notes.txt")

	req := httptest.NewRequest(http.MethodPost, "/migrate", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, planner, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testPlan, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Equal(t, "attachment; filename=Plan.md", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	require.Len(t, planner.got, 2)
	assert.Equal(t, "OrderFlow.html", planner.got[0].Name)
	assert.Equal(t, "notes.txt", planner.got[1].Name)
	assert.Equal(t, "MAP order to invoice", planner.got[1].Content)
}

func TestMigrate_RejectsBadUploads(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		order []string
		want  string
	}{
		{"wrong extension", map[string]string{"flow.xml": "<flow/>"}, []string{"flow.xml"}, "Only .html and .txt"},
		{"invalid utf8", map[string]string{"bad.txt": "\xff\xfe"}, []string{"bad.txt"}, "UTF-8"},
		{"no files", map[string]string{}, nil, "No files provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := &fakePlanner{plan: testPlan}
			body, contentType := multipartBody(t, tt.files, tt.order...)
			req := httptest.NewRequest(http.MethodPost, "/migrate", body)
			req.Header.Set("Content-Type", contentType)
			rec := serve(t, planner, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Nil(t, planner.got)
		})
	}
}

func TestMigrate_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/migrate", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(t, &fakePlanner{}, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMigrate_PipelineErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"synthesis", &core.SynthesisError{Parts: 2, Err: errors.New("upstream 503")}, http.StatusBadGateway},
		{"cancelled", &core.CancelledError{Total: 3, Err: context.Canceled}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, map[string]string{"a.txt": "MAP"}, "a.txt")
			req := httptest.NewRequest(http.MethodPost, "/migrate", body)
			req.Header.Set("Content-Type", contentType)
			rec := serve(t, &fakePlanner{err: tt.err}, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "Error processing migration")
		})
	}
}

func TestMigrate_PlannerNotInitialized(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"a.txt": "MAP"}, "a.txt")
	req := httptest.NewRequest(http.MethodPost, "/migrate", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, nil, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMigrateJSON(t *testing.T) {
	planner := &fakePlanner{plan: testPlan}
	payload := `{"files":[{"filename":"a.txt","content":"MAP"},{"filename":"b.html","content":"<p>LOOP</p>"}]}`
	rec := serve(t, planner, httptest.NewRequest(http.MethodPost, "/migrate/json", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MigrationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, testPlan, resp.PlanContent)
	assert.Equal(t, PlanFilename, resp.Filename)
	assert.Empty(t, resp.Error)
	require.Len(t, planner.got, 2)
	assert.Equal(t, "<p>LOOP</p>", planner.got[1].Content)
}

func TestMigrateJSON_Failures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		err     error
		want    int
	}{
		{"malformed", `{"files":`, nil, http.StatusBadRequest},
		{"empty", `{"files":[]}`, nil, http.StatusBadRequest},
		{"bad extension", `{"files":[{"filename":"a.doc","content":"x"}]}`, nil, http.StatusBadRequest},
		{"synthesis", `{"files":[{"filename":"a.txt","content":"x"}]}`, &core.SynthesisError{Parts: 2, Err: errors.New("down")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakePlanner{plan: testPlan, err: tt.err},
				httptest.NewRequest(http.MethodPost, "/migrate/json", strings.NewReader(tt.payload)))

			assert.Equal(t, tt.want, rec.Code)
			var resp MigrationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, resp.PlanContent)
			assert.Equal(t, PlanFilename, resp.Filename)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/migrate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(t, &fakePlanner{}, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(&fakePlanner{}, "test", nil).ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	assert.NoError(t, <-done)
}

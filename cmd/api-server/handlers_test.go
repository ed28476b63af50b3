package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rigelview/obs-portal/internal/auth"
	"github.com/rigelview/obs-portal/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dsn := filepath.Join(t.TempDir(), "portal_test.db") + "?_foreign_keys=on"
	db, err := database.New(database.DriverSQLite, dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var cfg config
	cfg.uploadDir = t.TempDir()

	return &application{
		config:     cfg,
		db:         db,
		sessions:   auth.NewSessionManager(logger, db),
		baseLogger: logger,
	}
}

func loginTestUser(t *testing.T, app *application) string {
	t.Helper()

	users := database.NewUserDAO(app.baseLogger, app.db)
	id, err := users.Insert(context.Background(), database.InsertUserDTO{
		Username:     "ito",
		PasswordHash: "x",
		Email:        "ito@example.edu",
		FirstName:    "Test",
		LastName:     "Observer",
		ObserverCode: "Ito",
	})
	require.NoError(t, err)

	token, err := app.sessions.StartSession(context.Background(), id, auth.DefaultSessionDuration)
	require.NoError(t, err)

	return token
}

func uploadSchedule(t *testing.T, app *application, token, filename, contents string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("schedule", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/observations/schedule", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	return rec
}

func TestHandleUploadScheduleSpoolsToUniqueFiles(t *testing.T) {
	app := newTestApplication(t)
	token := loginTestUser(t, app)

	// Two uploads reusing a filename must spool independently; neither may
	// see the other's contents.
	rec := uploadSchedule(t, app, token, "tonight.sch",
		"target \"Vega\" ra 18:36:56 dec +38:47:01\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = uploadSchedule(t, app, token, "tonight.sch",
		"target \"Deneb\" ra 20:41:26 dec +45:16:49\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload struct {
		Parsed    int `json:"parsed"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Parsed)
	assert.Equal(t, 1, payload.Succeeded)
	assert.Equal(t, 0, payload.Failed)

	// Spooled copies are cleaned up once the request is served.
	entries, err := os.ReadDir(app.config.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleUploadScheduleRejectsMissingFile(t *testing.T) {
	app := newTestApplication(t)
	token := loginTestUser(t, app)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/observations/schedule", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

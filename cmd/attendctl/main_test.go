package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workend-notifier/internal/models"
)

func TestParseBreak(t *testing.T) {
	b, err := parseBreak("12:00-12:30")
	require.NoError(t, err)
	assert.Equal(t, models.BreakInterval{Start: "12:00", End: "12:30"}, b)

	b, err = parseBreak("15:00-")
	require.NoError(t, err)
	assert.True(t, b.IsOpen())

	for _, raw := range []string{"12:00", "noon-13:00", "12:00-later"} {
		_, err := parseBreak(raw)
		assert.Error(t, err, raw)
	}
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAttendanceCommand(t *testing.T) {
	var got models.AttendanceRecord
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attendance", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(models.CompletionResult{
			Status:         models.StatusPending,
			CompletionTime: "18:00",
			Message:        "8時間完了予定: 18:00 (残り4時間0分)",
		})
	}))
	defer server.Close()

	out, err := run(t, server.URL, "attendance", "--start", "09:00", "--break", "12:00-13:00", "--break", "15:00-")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.StartTime)
	assert.Equal(t, []models.BreakInterval{{Start: "12:00", End: "13:00"}, {Start: "15:00"}}, got.Breaks)
	assert.Contains(t, out, "Eight hours:  18:00")
}

func TestAttendanceCommand_RequiresStart(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "attendance")
	assert.Error(t, err)
}

func TestBreakStartCommand(t *testing.T) {
	var body map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/breaks/start", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(models.CompletionResult{Status: models.StatusBreakStart})
	}))
	defer server.Close()

	out, err := run(t, server.URL, "break-start", "--duration", "45")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"duration_minutes": 45, "warning_minutes": 5}, body)
	assert.Contains(t, out, "break_start")
}

func TestStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			w.Write([]byte(`{"workDate":"2026-10-16","latest":{"status":"pending","workDate":"2026-10-16","message":"","completionTime":"18:00","actualWorkMinutes":240,"totalBreakMinutes":60},"permission":"granted","observer":"active"}`))
		case "/api/alarms":
			w.Write([]byte(`{"alarms":[{"name":"overtime-notifier","fireAt":"2026-10-16T18:30:00Z","periodMinutes":30}]}`))
		}
	}))
	defer server.Close()

	out, err := run(t, server.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Work date:    2026-10-16")
	assert.Contains(t, out, "Eight hours:  18:00")
	assert.Contains(t, out, "overtime-notifier (every 30m0s)")
}

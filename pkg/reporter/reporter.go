// Package reporter - клиент HTTP API сервиса уведомлений. Им пользуются
// наблюдатель страницы табеля и attendctl.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/service"
)

// StatusError - ответ сервера с кодом 4xx/5xx
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Retryable - 5xx и 429 можно повторить, остальные коды означают плохой запрос
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Alarm - живой таймер сервиса
type Alarm struct {
	Name          string    `json:"name"`
	FireAt        time.Time `json:"fireAt"`
	PeriodMinutes int       `json:"periodMinutes,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// New создает клиент. httpClient может быть nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// ReportAttendance отправляет отметки дня
func (c *Client) ReportAttendance(ctx context.Context, record models.AttendanceRecord) (*models.CompletionResult, error) {
	var result models.CompletionResult
	if err := c.send(ctx, http.MethodPost, "/api/attendance", record, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportBreakStart сообщает о начале перерыва
func (c *Client) ReportBreakStart(ctx context.Context, durationMinutes, warningMinutes int) (*models.CompletionResult, error) {
	body := map[string]int{
		"duration_minutes": durationMinutes,
		"warning_minutes":  warningMinutes,
	}
	var result models.CompletionResult
	if err := c.send(ctx, http.MethodPost, "/api/breaks/start", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportBreakEnd сообщает о конце перерыва
func (c *Client) ReportBreakEnd(ctx context.Context) (*models.CompletionResult, error) {
	return c.postStatus(ctx, "/api/breaks/end")
}

func (c *Client) ReportBeforeWork(ctx context.Context) (*models.CompletionResult, error) {
	return c.postStatus(ctx, "/api/status/before-work")
}

func (c *Client) ReportOnBreak(ctx context.Context) (*models.CompletionResult, error) {
	return c.postStatus(ctx, "/api/status/on-break")
}

// Status - текущее состояние сервиса
func (c *Client) Status(ctx context.Context) (*service.StatusView, error) {
	var view service.StatusView
	if err := c.send(ctx, http.MethodGet, "/api/status", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Alarms - живые таймеры в порядке срабатывания
func (c *Client) Alarms(ctx context.Context) ([]Alarm, error) {
	var resp struct {
		Alarms []Alarm `json:"alarms"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/alarms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Alarms, nil
}

func (c *Client) postStatus(ctx context.Context, path string) (*models.CompletionResult, error) {
	var result models.CompletionResult
	if err := c.send(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// send делает запрос и при сбое один раз сразу повторяет его
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	err := c.do(ctx, method, path, payload, out)
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if ctx.Err() != nil || (errors.As(err, &statusErr) && !statusErr.Retryable()) {
		return err
	}

	c.logger.WithError(err).WithField("path", path).Warn("Request failed, retrying once")
	if err = c.do(ctx, method, path, payload, out); err != nil {
		c.logger.WithError(err).WithField("path", path).Error("Request failed after retry")
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

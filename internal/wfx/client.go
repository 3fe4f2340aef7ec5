// Package wfx is the WorkflowMax API client: OAuth2 client-credentials
// token handling, timesheet listing and job detail lookups.
package wfx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

const defaultBaseURL = "https://api.workflowmax2.com"

// NewClient instantiates a WFX API client. Unless an HTTPClient
// override is supplied, requests carry tokens refreshed through the
// OAuth2 client-credentials flow.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("wfx: client_id and client_secret are required")
		}
		oauthCfg := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = oauthCfg.Client(context.Background())
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// FetchTimesheets lists the staff member's timesheet entries between
// from and to inclusive.
func (c *Client) FetchTimesheets(ctx context.Context, staffID string, from, to time.Time) ([]*model.TimesheetEntry, error) {
	values := url.Values{}
	values.Set("staff", staffID)
	values.Set("from", from.Format("2006-01-02"))
	values.Set("to", to.Format("2006-01-02"))

	var payload timesheetListResponse
	if err := c.getJSON(ctx, "/time.api/list?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	entries := make([]*model.TimesheetEntry, 0, len(payload.Times))
	for _, rec := range payload.Times {
		entries = append(entries, mapTimesheetRecord(rec))
	}
	return entries, nil
}

// FetchJobDetails looks up one job's metadata. Errors mean
// "unavailable"; the reconciliation service substitutes a placeholder.
func (c *Client) FetchJobDetails(ctx context.Context, jobID string) (*model.JobDetails, error) {
	if jobID == "" {
		return nil, fmt.Errorf("wfx: job id is required")
	}

	var payload jobResponse
	if err := c.getJSON(ctx, "/job.api/get/"+url.PathEscape(jobID), &payload); err != nil {
		return nil, err
	}

	return &model.JobDetails{
		ID:       payload.Job.ID,
		Name:     payload.Job.Name,
		Address:  payload.Job.Address,
		Client:   payload.Job.Client.Name,
		Category: payload.Job.Category,
	}, nil
}

// getJSON performs a GET against the API and decodes the JSON body,
// capturing a bounded slice of the response body on API errors.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("wfx: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wfx: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("wfx: API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wfx: decode response: %w", err)
	}
	return nil
}

// mapTimesheetRecord converts an API record into the engine's model.
// A missing or unparseable start time maps to -1; the scorer infers
// the default start in that case.
func mapTimesheetRecord(rec timesheetRecord) *model.TimesheetEntry {
	return &model.TimesheetEntry{
		ID:          rec.ID,
		StaffID:     rec.StaffID,
		Date:        rec.Date,
		JobID:       rec.JobID,
		Minutes:     rec.Minutes,
		StartMinute: parseClock(rec.Start),
		Note:        rec.Note,
	}
}

// parseClock converts "HH:MM" to minutes since midnight, -1 when the
// value is absent or malformed.
func parseClock(s string) int {
	if s == "" {
		return -1
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

package redcap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

// badFormatError is the upstream message that proves a supertoken is valid: a
// deliberately malformed project-create request is rejected for its payload
// (400) rather than its token (403).
const badFormatError = "The data is not in the specified format."

// Client talks to a REDCap instance over its form-encoded POST API. It performs
// no retries; retry policy belongs to callers.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a REDCap API client
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		http:   resty.New().SetTimeout(timeout),
		logger: logger,
	}
}

type apiError struct {
	Error string `json:"error"`
}

// post issues a form-encoded POST and returns the raw response body.
// Non-2xx responses and transport failures surface as upstream errors.
func (c *Client) post(ctx context.Context, serverURL string, form map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		Post(serverURL)
	if err != nil {
		return nil, apperrors.NewUpstreamError("survey service unreachable", err)
	}

	if resp.IsError() {
		var apiErr apiError
		message := resp.Status()
		if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("content", form["content"]).
			Msg("REDCap request rejected")
		return nil, apperrors.NewUpstreamError(message, fmt.Errorf("redcap: status %d", resp.StatusCode()))
	}

	return resp.Body(), nil
}

// Metadata fetches the data dictionary covering the given fields and parses it
// into the typed representation. An empty fields slice fetches the whole
// dictionary.
func (c *Client) Metadata(ctx context.Context, serverURL, token string, fields []string) (Dictionary, error) {
	form := map[string]string{
		"token":   token,
		"content": "metadata",
		"format":  "json",
	}
	if len(fields) > 0 {
		form["fields"] = strings.Join(fields, ",")
	}

	body, err := c.post(ctx, serverURL, form)
	if err != nil {
		return nil, err
	}

	return ParseDictionary(body)
}

// RawMetadata fetches the data dictionary without parsing, for copying a
// template project's structure verbatim.
func (c *Client) RawMetadata(ctx context.Context, serverURL, token string) ([]byte, error) {
	return c.post(ctx, serverURL, map[string]string{
		"token":   token,
		"content": "metadata",
		"format":  "json",
	})
}

// ImportMetadata pushes a raw data dictionary into a project
func (c *Client) ImportMetadata(ctx context.Context, serverURL, token string, metadata []byte) error {
	_, err := c.post(ctx, serverURL, map[string]string{
		"token":   token,
		"content": "metadata",
		"format":  "json",
		"data":    string(metadata),
	})
	return err
}

// ExportRecords exports records in their external representation
func (c *Client) ExportRecords(ctx context.Context, serverURL, token string, fields []string) ([]map[string]interface{}, error) {
	form := map[string]string{
		"token":   token,
		"content": "record",
		"action":  "export",
		"format":  "json",
	}
	if len(fields) > 0 {
		form["fields"] = strings.Join(fields, ",")
	}

	body, err := c.post(ctx, serverURL, form)
	if err != nil {
		return nil, err
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apperrors.NewUpstreamError("malformed record export response", err)
	}

	return records, nil
}

// ImportRecords pushes records, already in external representation, into a
// project and returns the accepted count.
func (c *Client) ImportRecords(ctx context.Context, serverURL, token string, records []map[string]interface{}) (int, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}

	body, err := c.post(ctx, serverURL, map[string]string{
		"token":   token,
		"content": "record",
		"action":  "import",
		"format":  "json",
		"data":    string(data),
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		// Some REDCap versions answer with a bare array of record ids
		var ids []string
		if err2 := json.Unmarshal(body, &ids); err2 == nil {
			return len(ids), nil
		}
		return 0, apperrors.NewUpstreamError("malformed record import response", err)
	}

	return result.Count, nil
}

// Version fetches the REDCap version string for a project token
func (c *Client) Version(ctx context.Context, serverURL, token string) (string, error) {
	body, err := c.post(ctx, serverURL, map[string]string{
		"token":   token,
		"content": "version",
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// CreateProject creates a project via supertoken and returns the new project's
// API token.
func (c *Client) CreateProject(ctx context.Context, serverURL, supertoken, title string) (string, error) {
	payload, err := json.Marshal([]map[string]interface{}{
		{"project_title": title, "purpose": 4},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode project payload: %w", err)
	}

	body, err := c.post(ctx, serverURL, map[string]string{
		"token":        supertoken,
		"content":      "project",
		"format":       "json",
		"returnFormat": "json",
		"data":         string(payload),
	})
	if err != nil {
		return "", err
	}

	return strings.Trim(strings.TrimSpace(string(body)), `"`), nil
}

// CheckServerConnection verifies a supertoken against a server URL by trying to
// create a project with invalid data. A valid supertoken fails on the payload
// (bad-format 400); anything else means the token or URL is wrong.
func (c *Client) CheckServerConnection(ctx context.Context, serverURL, supertoken string) bool {
	if serverURL == "" || supertoken == "" {
		return false
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"token":        supertoken,
			"content":      "project",
			"data":         "[]",
			"returnFormat": "json",
		}).
		Post(serverURL)
	if err != nil {
		return false
	}

	if resp.StatusCode() != 400 {
		return false
	}

	var apiErr apiError
	if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr != nil {
		return false
	}

	return apiErr.Error == badFormatError
}

// CheckProjectConnection verifies a project token by fetching the REDCap version
func (c *Client) CheckProjectConnection(ctx context.Context, serverURL, token string) bool {
	if serverURL == "" || token == "" {
		return false
	}

	_, err := c.Version(ctx, serverURL, token)
	return err == nil
}

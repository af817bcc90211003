package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for GET, POST, PATCH, DELETE
// ============================================================

// do executes an authenticated request to Supabase PostgREST. A nil payload
// sends no body. 404 and 204 answers yield a nil body and no error.
func (c *Client) do(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", method, err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &statusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	return c.do(ctx, method, path, nil, "return=representation")
}

func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, table, data, "return=representation")
}

// doPatch updates the rows matched by path and returns them.
func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, data, "return=representation")
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, "return=minimal")
	return err
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeRows unmarshals a PostgREST array answer. A nil body decodes to no rows.
func decodeRows[T any](body []byte, table string) ([]T, error) {
	if len(body) == 0 {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// eq builds a PostgREST equality filter with an escaped value.
func eq(column, value string) string {
	return column + "=eq." + url.QueryEscape(value)
}

// ilikeAny builds an or=(...) filter matching value as a case-insensitive
// substring of any of the columns. PostgREST reserves , ( ) in filter values.
func ilikeAny(value string, columns ...string) string {
	cleaned := strings.NewReplacer(",", " ", "(", " ", ")", " ", "*", " ").Replace(strings.TrimSpace(value))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s.ilike.*%s*", col, cleaned)
	}
	return "or=(" + url.QueryEscape(strings.Join(parts, ",")) + ")"
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

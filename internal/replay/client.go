package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return resp.StatusCode, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

// submit posts one game and reports whether the server had already seen it.
func (c *client) submit(ctx context.Context, g Game) (duplicate bool, err error) {
	var ack AckResponse
	if _, err := c.do(ctx, http.MethodPost, "/games", g, &ack); err != nil {
		return false, err
	}
	return ack.Duplicate, nil
}

func (c *client) decided(ctx context.Context, season, gameID string) error {
	_, err := c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(season)+"/"+url.PathEscape(gameID), nil, nil)
	return err
}

func (c *client) leaderboard(ctx context.Context, season string, n int) ([]Entry, error) {
	var resp struct {
		Entries []Entry `json:"entries"`
	}
	_, err := c.do(ctx, http.MethodGet, "/leaderboard?"+url.Values{"season": {season}, "stat": {"W"}, "limit": {fmt.Sprint(n)}}.Encode(), nil, &resp)
	return resp.Entries, err
}

func (c *client) rank(ctx context.Context, season, pitcherID string) (Entry, error) {
	var e Entry
	_, err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(pitcherID)+"?"+url.Values{"season": {season}, "stat": {"W"}}.Encode(), nil, &e)
	return e, err
}

func (c *client) line(ctx context.Context, season, pitcherID string) (Line, error) {
	var l Line
	_, err := c.do(ctx, http.MethodGet, "/pitchers/"+url.PathEscape(pitcherID)+"?"+url.Values{"season": {season}}.Encode(), nil, &l)
	return l, err
}

// Package firebase implements the remote ledger store boundary against a
// hosted JSON-tree database speaking the Firebase Realtime Database REST
// dialect: per-day subtrees under users/{uid}/{date}, addressed as .json
// resources with a bearer token in the auth query parameter.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"example.com/dayledger/internal/ledger"
	"example.com/dayledger/internal/observability"
)

// Client provides minimal interactions with the hosted ledger tree.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client with sane defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithTimeout constructs a client with an explicit per-request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	c := NewClient(baseURL)
	c.httpClient.Timeout = timeout
	return c
}

// GetDay reads the whole subtree for one date. The store answers null for a
// path that was never written; that decodes to an empty day. Entries are
// returned ascending by identifier, which for store-generated push IDs is
// creation order.
func (c *Client) GetDay(ctx context.Context, token, userID, date string) ([]ledger.Entry, error) {
	var raw map[string]ledger.Activity
	err := c.do(ctx, "get_day", http.MethodGet, c.dayURL(userID, date, token), nil, &raw)
	if err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, 0, len(raw))
	for id, activity := range raw {
		entries = append(entries, ledger.Entry{ID: id, Activity: activity})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Push appends an activity under the date path. The store assigns the
// identifier and reports it back as {"name":"<id>"}.
func (c *Client) Push(ctx context.Context, token, userID, date string, activity ledger.Activity) (string, error) {
	var reply struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, "push", http.MethodPost, c.dayURL(userID, date, token), activity, &reply)
	if err != nil {
		return "", err
	}
	if reply.Name == "" {
		return "", fmt.Errorf("%w: store did not assign an id", ledger.ErrRemoteUnavailable)
	}
	return reply.Name, nil
}

// Patch partially overwrites the activity at id.
func (c *Client) Patch(ctx context.Context, token, userID, date, id string, activity ledger.Activity) error {
	return c.do(ctx, "patch", http.MethodPatch, c.activityURL(userID, date, id, token), activity, nil)
}

// Delete removes the activity at id. The store answers success for a path
// that does not exist, so repeated deletes are safe.
func (c *Client) Delete(ctx context.Context, token, userID, date, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.activityURL(userID, date, id, token), nil, nil)
}

func (c *Client) dayURL(userID, date, token string) string {
	return fmt.Sprintf("%s/users/%s/%s.json?auth=%s", c.baseURL, userID, date, token)
}

func (c *Client) activityURL(userID, date, id, token string) string {
	return fmt.Sprintf("%s/users/%s/%s/%s.json?auth=%s", c.baseURL, userID, date, id, token)
}

func (c *Client) do(ctx context.Context, operation, method, url string, payload, out interface{}) error {
	started := time.Now()
	err := c.roundTrip(ctx, method, url, payload, out)
	observability.ObserveStoreRequest(operation, err, time.Since(started))
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: store rejected token (%s)", ledger.ErrUnauthorized, resp.Status)
	case resp.StatusCode >= 300:
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s: %s", ledger.ErrRemoteUnavailable, resp.Status, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ledger.ErrRemoteUnavailable, err)
	}
	return nil
}

// Package client is the polling client for the forum API: a thin typed
// HTTP client, the delta reconciliation engine, and the poll session
// driving both. Mutations issued through the client become visible via
// the next poll delta, the same path as everyone else's changes; there
// is no separate authoritative local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/auth"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

// Client calls the forum API on behalf of one portal user.
type Client struct {
	BaseURL    string
	APIKey     string
	UserID     string
	UserName   string
	UserRole   string
	SigningKey string
	HTTPClient *http.Client
}

// Delta is one sync batch as served by the API.
type Delta struct {
	Messages   []models.Message `json:"messages"`
	ServerTime string           `json:"serverTime"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	req.Header.Set("X-User-ID", c.UserID)
	req.Header.Set("X-User-Name", c.UserName)
	req.Header.Set("X-User-Role", c.UserRole)
	if c.SigningKey != "" {
		req.Header.Set("X-User-Signature", auth.SignUserID(c.SigningKey, c.UserID))
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = resp.Status
		}
		return fmt.Errorf("%w: %s", errs.FromStatus(resp.StatusCode), payload.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", errs.ErrTransient, err)
	}
	return nil
}

// Poll fetches the delta batch after cursor since; empty since asks for
// the full current message set.
func (c *Client) Poll(ctx context.Context, eventID, since string) (Delta, error) {
	var d Delta
	path := "/v1/forum/" + url.PathEscape(eventID)
	if since != "" {
		path += "?since=" + url.QueryEscape(since)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &d)
	return d, err
}

// PostRequest is the body of a message create call.
type PostRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	ParentID string `json:"parentId,omitempty"`
}

// Post creates a message in the event forum.
func (c *Client) Post(ctx context.Context, eventID string, req PostRequest) (models.Message, error) {
	var m models.Message
	err := c.do(ctx, http.MethodPost, "/v1/forum/"+url.PathEscape(eventID), req, &m)
	return m, err
}

// Delete soft-deletes a message.
func (c *Client) Delete(ctx context.Context, eventID, messageID string) (models.Message, error) {
	var m models.Message
	err := c.do(ctx, http.MethodDelete, "/v1/forum/"+url.PathEscape(eventID)+"/messages/"+url.PathEscape(messageID), nil, &m)
	return m, err
}

// TogglePin flips a message's pinned state (organizer only).
func (c *Client) TogglePin(ctx context.Context, eventID, messageID string) (models.Message, error) {
	var m models.Message
	err := c.do(ctx, http.MethodPatch, "/v1/forum/"+url.PathEscape(eventID)+"/messages/"+url.PathEscape(messageID)+"/pin", nil, &m)
	return m, err
}

// React toggles the caller's emoji reaction and returns the resulting
// per-emoji summary.
func (c *Client) React(ctx context.Context, eventID, messageID, emoji string) ([]models.ReactionSummary, error) {
	var out struct {
		Reactions []models.ReactionSummary `json:"reactions"`
	}
	body := struct {
		Emoji string `json:"emoji"`
	}{Emoji: emoji}
	err := c.do(ctx, http.MethodPost, "/v1/forum/"+url.PathEscape(eventID)+"/messages/"+url.PathEscape(messageID)+"/react", body, &out)
	return out.Reactions, err
}

package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const mastodonTimeout = 15 * time.Second

// MastodonClient publishes statuses through the Mastodon REST API.
type MastodonClient struct {
	httpClient *http.Client
}

func NewMastodonClient() *MastodonClient {
	return &MastodonClient{
		httpClient: &http.Client{Timeout: mastodonTimeout},
	}
}

func (c *MastodonClient) Kind() Kind { return KindMastodon }

// normalizeInstanceURL ensures the instance URL has a scheme and no trailing slash.
func normalizeInstanceURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

type mastodonStatusRequest struct {
	Status string `json:"status"`
}

type mastodonStatusResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type mastodonErrorResponse struct {
	Error string `json:"error"`
}

// Publish creates a status and returns its public URL.
// TODO: attach an Idempotency-Key header here if duplicate suppression on
// crash recovery is ever required; Bluesky has no equivalent, so it is not
// part of the shared contract.
func (c *MastodonClient) Publish(ctx context.Context, cred Credential, content string) (string, error) {
	instanceURL := normalizeInstanceURL(cred.InstanceURL)
	if _, err := url.Parse(instanceURL); err != nil || instanceURL == "https://" {
		return "", TerminalError(KindMastodon, "invalid instance URL", err)
	}

	body, err := json.Marshal(mastodonStatusRequest{Status: content})
	if err != nil {
		return "", TerminalError(KindMastodon, "failed to encode status", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, instanceURL+"/api/v1/statuses", bytes.NewReader(body))
	if err != nil {
		return "", TerminalError(KindMastodon, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", TransientError(KindMastodon, fmt.Sprintf("cannot reach instance at %s", instanceURL), err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var status mastodonStatusResponse
		if err := json.Unmarshal(raw, &status); err != nil {
			return "", TransientError(KindMastodon, "unreadable response from instance", err)
		}
		if status.URL != "" {
			return status.URL, nil
		}
		return status.ID, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", TerminalError(KindMastodon, "access token is invalid or expired", nil)
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		return "", TerminalError(KindMastodon, fmt.Sprintf("instance rejected status: %s", mastodonErrorDetail(raw, resp.StatusCode)), nil)
	default:
		// 429 and 5xx are worth another attempt.
		return "", TransientError(KindMastodon, fmt.Sprintf("instance returned %s", mastodonErrorDetail(raw, resp.StatusCode)), nil)
	}
}

func mastodonErrorDetail(raw []byte, statusCode int) string {
	var body mastodonErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Sprintf("%d (%s)", statusCode, body.Error)
	}
	return fmt.Sprintf("%d", statusCode)
}

package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	blueskyTimeout = 15 * time.Second
	// BlueskyServiceURL is the default PDS entrypoint.
	BlueskyServiceURL = "https://bsky.social"
)

// BlueskyClient publishes posts through the AT Protocol XRPC endpoints:
// one createSession call per publish, then a createRecord for the post.
type BlueskyClient struct {
	serviceURL string
	httpClient *http.Client
}

func NewBlueskyClient() *BlueskyClient {
	return &BlueskyClient{
		serviceURL: BlueskyServiceURL,
		httpClient: &http.Client{Timeout: blueskyTimeout},
	}
}

func (c *BlueskyClient) Kind() Kind { return KindBluesky }

// normalizeHandle strips scheme, @ prefix and trailing slashes from a handle.
func normalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if i := strings.Index(handle, "://"); i >= 0 {
		handle = handle[i+3:]
	}
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimRight(handle, "/")
}

type blueskySessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type blueskySessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type blueskyCreateRecordRequest struct {
	Repo       string            `json:"repo"`
	Collection string            `json:"collection"`
	Record     blueskyPostRecord `json:"record"`
}

type blueskyPostRecord struct {
	Type      string `json:"$type"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type blueskyCreateRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type blueskyErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Publish logs in with the app password and creates a feed post record,
// returning its AT-URI (at://did:plc:xxx/app.bsky.feed.post/yyy).
func (c *BlueskyClient) Publish(ctx context.Context, cred Credential, content string) (string, error) {
	session, err := c.createSession(ctx, normalizeHandle(cred.Handle), cred.Token)
	if err != nil {
		return "", err
	}

	record := blueskyCreateRecordRequest{
		Repo:       session.DID,
		Collection: "app.bsky.feed.post",
		Record: blueskyPostRecord{
			Type:      "app.bsky.feed.post",
			Text:      content,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	var created blueskyCreateRecordResponse
	if err := c.xrpc(ctx, "com.atproto.repo.createRecord", session.AccessJwt, record, &created); err != nil {
		return "", err
	}
	return created.URI, nil
}

func (c *BlueskyClient) createSession(ctx context.Context, handle, appPassword string) (*blueskySessionResponse, error) {
	var session blueskySessionResponse
	req := blueskySessionRequest{Identifier: handle, Password: appPassword}
	if err := c.xrpc(ctx, "com.atproto.server.createSession", "", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *BlueskyClient) xrpc(ctx context.Context, method, accessJwt string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return TerminalError(KindBluesky, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/xrpc/"+method, bytes.NewReader(body))
	if err != nil {
		return TerminalError(KindBluesky, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+accessJwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TransientError(KindBluesky, "cannot reach Bluesky", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(raw, out); err != nil {
			return TransientError(KindBluesky, "unreadable response", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return TerminalError(KindBluesky, "handle or app password rejected", nil)
	case resp.StatusCode == http.StatusBadRequest:
		return TerminalError(KindBluesky, fmt.Sprintf("%s rejected: %s", method, blueskyErrorDetail(raw, resp.StatusCode)), nil)
	default:
		return TransientError(KindBluesky, fmt.Sprintf("%s returned %s", method, blueskyErrorDetail(raw, resp.StatusCode)), nil)
	}
}

func blueskyErrorDetail(raw []byte, statusCode int) string {
	var body blueskyErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Sprintf("%d (%s: %s)", statusCode, body.Error, body.Message)
	}
	return fmt.Sprintf("%d", statusCode)
}

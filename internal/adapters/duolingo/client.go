package duolingo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

const (
	apiVersion  = "2017-06-30"
	userAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	dayLayout   = "2006-01-02"
	maxBodyRead = 1 << 20
)

// Client talks to the Duolingo web API.
type Client struct {
	baseURL   string
	fetchDays int
	location  *time.Location
	now       func() time.Time
	client    *http.Client
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	FetchDays int
	Location  *time.Location
	Now       func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.FetchDays <= 0 {
		opts.FetchDays = 14
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		fetchDays: opts.FetchDays,
		location:  opts.Location,
		now:       opts.Now,
		client:    &http.Client{Timeout: opts.Timeout},
	}
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DistinctID string `json:"distinctId"`
}

// Login exchanges a username and password for a JWT.
func (c *Client) Login(ctx context.Context, identity, secret string) (string, error) {
	body, err := json.Marshal(loginPayload{
		Identifier: identity,
		Password:   secret,
		DistinctID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("duolingo: failed to marshal login: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/"+apiVersion+"/login?fields=", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("duolingo: login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
	if err != nil {
		return "", fmt.Errorf("%w: status %d: reading body: %v", domain.ErrLoginFailed, resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusForbidden && isCaptchaWall(respBody) {
		return "", fmt.Errorf("%w: status %d", domain.ErrCaptchaRequired, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrLoginFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	token := resp.Header.Get("jwt")
	if token == "" {
		return "", fmt.Errorf("%w: no token in response", domain.ErrLoginFailed)
	}
	return token, nil
}

func isCaptchaWall(body []byte) bool {
	return bytes.Contains(body, []byte("blockScript")) || bytes.Contains(bytes.ToLower(body), []byte("captcha"))
}

type usersEnvelope struct {
	Users []json.RawMessage `json:"users"`
}

type userID struct {
	ID json.Number `json:"id"`
}

type summariesEnvelope struct {
	Summaries *[]json.RawMessage `json:"summaries"`
}

// FetchData returns the user record and the daily summaries of the trailing
// fetch window, today included.
func (c *Client) FetchData(ctx context.Context, identity, token string) (*domain.RawProgress, error) {
	if info, err := InspectToken(token); err == nil && info.Expired(c.now()) {
		log.Printf("[DUOLINGO] Token expired at %s, the request will likely be rejected", info.ExpiresAt.Format(time.RFC3339))
	}

	q := url.Values{}
	q.Set("username", identity)
	q.Set("fields", "users{id,username,siteStreak,streak}")

	var users usersEnvelope
	if err := c.getJSON(ctx, "/"+apiVersion+"/users?"+q.Encode(), token, &users); err != nil {
		return nil, err
	}
	if len(users.Users) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, identity)
	}
	rawUser := users.Users[0]

	var id userID
	if err := json.Unmarshal(rawUser, &id); err != nil || id.ID == "" {
		return nil, &domain.SchemaValidationError{Entity: "User", Field: "id", Reason: "field required"}
	}

	today := c.now().In(c.location)
	q = url.Values{}
	q.Set("startDate", today.AddDate(0, 0, -(c.fetchDays-1)).Format(dayLayout))
	q.Set("endDate", today.Format(dayLayout))
	q.Set("timezone", c.location.String())

	var summaries summariesEnvelope
	path := fmt.Sprintf("/%s/users/%s/xp_summaries?%s", apiVersion, id.ID.String(), q.Encode())
	if err := c.getJSON(ctx, path, token, &summaries); err != nil {
		return nil, err
	}
	if summaries.Summaries == nil {
		return nil, &domain.SchemaValidationError{Entity: "SummaryCollection", Field: "summaries", Reason: "field required"}
	}

	return &domain.RawProgress{
		User:      rawUser,
		Summaries: *summaries.Summaries,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("duolingo: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("duolingo: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 16*maxBodyRead)).Decode(dst); err != nil {
		return &domain.SchemaValidationError{Entity: "Response", Field: "*", Reason: err.Error()}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", domain.ErrNotFound, resp.StatusCode)
	case resp.StatusCode >= 400:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("duolingo: remote API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

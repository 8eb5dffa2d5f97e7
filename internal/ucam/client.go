package ucam

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

	"golang.org/x/time/rate"

	"github.com/example/section-sniper/internal/enrollment"
)

const (
	DefaultOrigin     = "https://m5p10igya2.execute-api.ap-southeast-1.amazonaws.com"
	DefaultSiteOrigin = "https://ucamcloud.uiu.ac.bd"

	loginPath      = "/v3/auth/login"
	preadvisedPath = "/v3/users/me/preadvice-courses"
	sectionsPath   = "/v3/courses/sections"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

type Options struct {
	Origin     string
	SiteOrigin string
	Timeout    time.Duration

	// RateLimitRPS is shared by every request of the client. <=0 disables it.
	RateLimitRPS float64

	HTTPClient *http.Client
}

// Client talks to the UCAM cloud registration API. One Client can hand out many
// sessions; they share its HTTP client and rate limiter.
type Client struct {
	hc         *http.Client
	origin     string
	siteOrigin string
	limiter    *rate.Limiter
}

func New(opts Options) *Client {
	if opts.Origin == "" {
		opts.Origin = DefaultOrigin
	}
	if opts.SiteOrigin == "" {
		opts.SiteOrigin = DefaultSiteOrigin
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		hc:         hc,
		origin:     strings.TrimRight(opts.Origin, "/"),
		siteOrigin: strings.TrimRight(opts.SiteOrigin, "/"),
	}
	if opts.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return c
}

// apiTime tolerates timestamps the API formats differently from RFC 3339; those decode
// to the zero time instead of failing the whole response.
type apiTime struct{ time.Time }

func (t *apiTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}

// envelope is the wrapper every endpoint answers with.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message *string         `json:"message"`
}

func (e envelope) message() string {
	if e.Message != nil && *e.Message != "" {
		return *e.Message
	}
	return e.Status
}

type loginRequest struct {
	UserID              string `json:"user_id"`
	Password            string `json:"password"`
	LogoutOtherSessions bool   `json:"logout_other_sessions"`
}

type loginData struct {
	AccessToken           string  `json:"access_token"`
	RefreshToken          string  `json:"refresh_token"`
	AccessTokenExpiresAt  apiTime `json:"access_token_expires_at"`
	RefreshTokenExpiresAt apiTime `json:"refresh_token_expires_at"`
}

// Login authenticates and returns a session bound to the access token.
func (c *Client) Login(ctx context.Context, creds enrollment.Credentials) (*Session, error) {
	body, err := json.Marshal(loginRequest{
		UserID:              creds.UserID,
		Password:            creds.Password,
		LogoutOtherSessions: creds.LogoutOtherSessions,
	})
	if err != nil {
		return nil, err
	}
	var data loginData
	if err := c.call(ctx, "login", http.MethodPost, loginPath, "", nil, body, &data); err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, &APIError{Op: "login", Status: http.StatusOK, Message: "response carried no access token", kind: enrollment.ErrAuth}
	}
	return &Session{
		c:         c,
		userID:    creds.UserID,
		token:     data.AccessToken,
		ExpiresAt: data.AccessTokenExpiresAt.Time,
	}, nil
}

// call performs one request, unwraps the envelope and decodes data into out.
func (c *Client) call(ctx context.Context, op, method, path, token string, query url.Values, body []byte, out any) error {
	status, raw, err := c.do(ctx, method, path, token, query, body)
	if err != nil {
		kind := kindFor(op)
		if op == "login" {
			kind = ErrTransport
		}
		return &APIError{Op: op, Message: err.Error(), kind: kind, err: err}
	}
	var env envelope
	if jerr := json.Unmarshal(raw, &env); jerr != nil {
		return &APIError{Op: op, Status: status, Message: fmt.Sprintf("decode response: %v", jerr), kind: classify(op, status, "")}
	}
	if status >= 400 || env.Status != "success" {
		msg := env.message()
		return &APIError{Op: op, Status: status, Message: msg, kind: classify(op, status, msg)}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &APIError{Op: op, Status: status, Message: "response carried no data", kind: kindFor(op)}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Op: op, Status: status, Message: fmt.Sprintf("decode data: %v", err), kind: kindFor(op)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body []byte) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("user-agent", userAgent)
	req.Header.Set("accept", "*/*")
	req.Header.Set("origin", c.siteOrigin)
	req.Header.Set("referer", c.siteOrigin+"/")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

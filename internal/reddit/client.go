// Package reddit fetches candidate topics, comment threads and single posts
// from Reddit's JSON endpoints, with optional password-grant authentication.
package reddit

import (
	"blogsmith/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Auth modes.
const (
	AuthAuto   = "auto"
	AuthPublic = "public"
	AuthOAuth  = "oauth"
)

// Client talks to Reddit. It is safe for sequential use by one run at a time;
// the token obtained by Topics is reused by later calls in the same run.
type Client struct {
	cfg        config.Reddit
	httpClient *http.Client
	delay      time.Duration
	pick       func(n int) int
	log        *slog.Logger

	mu      sync.Mutex
	session *session
}

// session is the access mode resolved for a run.
type session struct {
	base  string
	token *oauth2.Token
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPicker replaces the uniform random choice among filtered posts.
func WithPicker(pick func(n int) int) Option {
	return func(c *Client) { c.pick = pick }
}

// NewClient builds a client from the reddit configuration section.
func NewClient(cfg config.Reddit, log *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = "https://oauth.reddit.com"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = cfg.BaseURL + "/api/v1/access_token"
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthAuto
	}
	if cfg.ListingLimit <= 0 {
		cfg.ListingLimit = 25
	}
	if cfg.CommentLimit <= 0 {
		cfg.CommentLimit = 100
	}
	if cfg.CommentDepth <= 0 {
		cfg.CommentDepth = 10
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.OAuthURL = strings.TrimRight(cfg.OAuthURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: config.Duration(cfg.Timeout, 15*time.Second)},
		delay:      config.Duration(cfg.Delay, 2*time.Second),
		pick:       rand.IntN,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authorize resolves the access mode for a run. A failed token exchange
// downgrades to the public endpoints instead of failing the run.
func (c *Client) authorize(ctx context.Context) *session {
	public := &session{base: c.cfg.BaseURL}

	switch c.cfg.AuthMode {
	case AuthPublic:
		c.setSession(public)
		return public
	case AuthAuto:
		if !c.cfg.HasCredentials() {
			c.setSession(public)
			return public
		}
	}

	tok, err := c.fetchToken(ctx)
	if err != nil {
		c.log.Warn("Reddit token exchange failed, falling back to public endpoints", "error", err.Error())
		c.setSession(public)
		return public
	}

	s := &session{base: c.cfg.OAuthURL, token: tok}
	c.setSession(s)
	c.log.Debug("Reddit token acquired", "expires", tok.Expiry)
	return s
}

func (c *Client) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	hc := &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: &userAgentTransport{base: c.httpClient.Transport, userAgent: c.cfg.UserAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	return conf.PasswordCredentialsToken(ctx, c.cfg.Username, c.cfg.Password)
}

func (c *Client) setSession(s *session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// current returns the run's session, or a public one when no run has
// authorized yet or the token has expired.
func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || (c.session.token != nil && !c.session.token.Valid()) {
		return &session{base: c.cfg.BaseURL}
	}
	return c.session
}

// endpoint builds an absolute URL under the session base. path may carry its
// own query string, e.g. "top?t=day".
func (s *session) endpoint(path string, params map[string]int) string {
	p, rawQuery, _ := strings.Cut(path, "?")
	q, _ := url.ParseQuery(rawQuery)
	for k, v := range params {
		q.Set(k, strconv.Itoa(v))
	}
	u := s.base + "/" + strings.TrimLeft(p, "/") + ".json"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, s *session, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if s.token != nil {
		s.token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// userAgentTransport stamps the configured user agent on token requests.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.userAgent == "" {
		return base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(r)
}

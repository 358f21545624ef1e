package identity

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
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds the identity provider endpoints and API key.
type Config struct {
	AccountsURL string // Accounts API base, e.g. https://identitytoolkit.googleapis.com/v1.
	TokenURL    string // Token exchange base, e.g. https://securetoken.googleapis.com/v1.
	APIKey      string
	HTTPTimeout time.Duration
}

// Option configures optional behaviour for the Client.
type Option func(*Client)

// WithLogger overrides the logger used to report auth-state transitions.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the hosted identity provider and broadcasts
// principal-changed notifications.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *log.Logger

	mu           sync.Mutex
	principal    *Principal
	refreshToken string
	subscribers  map[int]func(*Principal)
	nextSub      int
}

// NewClient constructs a Client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      log.New(log.Writer(), "[identity] ", log.LstdFlags),
		subscribers: make(map[int]func(*Principal)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountReply struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignIn authenticates with an email/password credential and installs the
// resulting principal as current.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	var reply accountReply
	err := c.postAccounts(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return c.install(reply), nil
}

// SignUp creates an account, sets its display name, and installs the new
// principal as current.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*Principal, error) {
	var reply accountReply
	err := c.postAccounts(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &reply)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) != "" {
		var updated accountReply
		err := c.postAccounts(ctx, "accounts:update", map[string]interface{}{
			"idToken":           reply.IDToken,
			"displayName":       name,
			"returnSecureToken": false,
		}, &updated)
		if err != nil {
			c.logger.Printf("sign-up: setting display name failed: %v", err)
		} else {
			reply.DisplayName = updated.DisplayName
		}
	}

	return c.install(reply), nil
}

// SignInWithOAuth completes a third-party popup flow with the credential the
// provider handed back, and installs the resulting principal as current. The
// popup itself belongs to the presentation layer.
func (c *Client) SignInWithOAuth(ctx context.Context, providerID, credential string) (*Principal, error) {
	var reply accountReply
	err := c.postAccounts(ctx, "accounts:signInWithIdp", map[string]interface{}{
		"postBody":            fmt.Sprintf("id_token=%s&providerId=%s", credential, providerID),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return c.install(reply), nil
}

// SignOut clears the current principal and notifies subscribers with nil.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.principal = nil
	c.refreshToken = ""
	handlers := c.snapshotSubscribers()
	c.mu.Unlock()

	c.logger.Printf("signed out")
	for _, handler := range handlers {
		handler(nil)
	}
}

// Current returns the signed-in principal, or nil.
func (c *Client) Current() *Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// Token mints a fresh bearer token for the current principal. Every call
// exchanges the refresh token; ID tokens are short-lived and deliberately
// never cached across store calls.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return "", ErrNoPrincipal
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)

	endpoint := fmt.Sprintf("%s/token?key=%s", c.cfg.TokenURL, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", providerError(resp)
	}

	var reply struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("%w: decoding token reply: %v", ErrProviderUnavailable, err)
	}

	// The provider rotates refresh tokens; keep the newest.
	if reply.RefreshToken != "" {
		c.mu.Lock()
		c.refreshToken = reply.RefreshToken
		c.mu.Unlock()
	}
	return reply.IDToken, nil
}

// OnPrincipalChanged registers handler, replays the current principal to it
// immediately, and returns an unsubscribe capability. Subscribers then hear
// every sign-in and sign-out.
func (c *Client) OnPrincipalChanged(handler func(*Principal)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = handler
	current := c.principal
	c.mu.Unlock()

	handler(current)

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) install(reply accountReply) *Principal {
	principal := &Principal{
		UID:         reply.LocalID,
		Email:       reply.Email,
		DisplayName: reply.DisplayName,
	}
	if principal.UID == "" {
		principal.UID = tokenSubject(reply.IDToken)
	}

	c.mu.Lock()
	c.principal = principal
	c.refreshToken = reply.RefreshToken
	handlers := c.snapshotSubscribers()
	c.mu.Unlock()

	c.logger.Printf("signed in as %s", principal.Email)
	for _, handler := range handlers {
		handler(principal)
	}
	return principal
}

func (c *Client) snapshotSubscribers() []func(*Principal) {
	out := make([]func(*Principal), 0, len(c.subscribers))
	for _, handler := range c.subscribers {
		out = append(out, handler)
	}
	return out
}

func (c *Client) postAccounts(ctx context.Context, action string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.cfg.AccountsURL, action, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return providerError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// providerError decodes the provider's {"error":{"message":"REASON"}}
// envelope into a reason-coded credential error.
func providerError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Message == "" {
		return fmt.Errorf("%w: %s: %s", ErrProviderUnavailable, resp.Status, data)
	}
	return mapProviderReason(envelope.Error.Message)
}

// tokenSubject extracts the subject claim from an ID token. The token is
// decoded without signature verification: the store, not this client, is
// the party that validates it.
func tokenSubject(idToken string) string {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}

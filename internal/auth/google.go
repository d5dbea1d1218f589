// Package auth implements the Google OAuth login flow. Google matches the
// registered redirect URI byte for byte, so the configured value is used
// verbatim everywhere and validated the same way on the callback.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
)

const (
	authEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userinfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
)

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

type GoogleClient struct {
	http   *http.Client
	opts   Options
	logger *zap.Logger

	// endpoint overrides for tests
	tokenURL    string
	userinfoURL string
}

func NewGoogleClient(opts Options, logger *zap.Logger) *GoogleClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GoogleClient{
		http:        &http.Client{Timeout: timeout},
		opts:        opts,
		logger:      logger,
		tokenURL:    tokenEndpoint,
		userinfoURL: userinfoEndpoint,
	}
}

// NewState returns a random nonce to carry through the consent round trip.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Internal("generating oauth state", err)
	}
	return hex.EncodeToString(buf), nil
}

// AuthURL builds the consent URL the login handler redirects to.
func (c *GoogleClient) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.opts.ClientID)
	q.Set("redirect_uri", c.opts.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return authEndpoint + "?" + q.Encode()
}

// ValidateRedirect rejects callbacks whose redirect URI differs from the
// registered one in any way, including a missing trailing slash.
func (c *GoogleClient) ValidateRedirect(redirectURI string) error {
	if redirectURI != c.opts.RedirectURL {
		return errors.Unauthorized(
			fmt.Sprintf("redirect URI %q does not exactly match the registered URI", redirectURI), nil)
	}
	return nil
}

type UserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

// Exchange trades the authorization code for tokens and fetches the profile.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	if code == "" {
		return nil, errors.InvalidInput("authorization code is required", nil)
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", c.opts.ClientID)
	form.Set("client_secret", c.opts.ClientSecret)
	form.Set("redirect_uri", c.opts.RedirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Internal("creating token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Unavailable("google token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unauthorized(
			fmt.Sprintf("token exchange failed with status %d", resp.StatusCode), nil)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, errors.Internal("decoding token response", err)
	}

	return c.fetchUserInfo(ctx, token.AccessToken)
}

func (c *GoogleClient) fetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, errors.Internal("creating userinfo request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Unavailable("google userinfo endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unauthorized(
			fmt.Sprintf("userinfo request failed with status %d", resp.StatusCode), nil)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Internal("decoding userinfo response", err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, errors.Unauthorized("userinfo response missing subject or email", nil)
	}

	c.logger.Debug("google userinfo fetched", zap.String("email", info.Email))
	return &info, nil
}

// WithEndpoints overrides the Google endpoints, for tests.
func (c *GoogleClient) WithEndpoints(tokenURL, userinfoURL string) *GoogleClient {
	c.tokenURL = tokenURL
	c.userinfoURL = userinfoURL
	return c
}

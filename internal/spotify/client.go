package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	spotifyapi "github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

const (
	DefaultTokenURL            = "https://accounts.spotify.com/api/token"
	DefaultCurrentlyPlayingURL = "https://api.spotify.com/v1/me/player/currently-playing"
	DefaultTimeout             = 10 * time.Second
)

// Credentials are the three secrets needed for the refresh token flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate reports which credentials are missing, if any.
func (c Credentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.RefreshToken == "" {
		missing = append(missing, "refresh token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Client talks to the Spotify accounts and player APIs.
// It holds no per-user state and is safe for concurrent use.
type Client struct {
	httpClient          *http.Client
	tokenURL            string
	currentlyPlayingURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for both upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenURL overrides the accounts token endpoint.
func WithTokenURL(u string) Option {
	return func(c *Client) { c.tokenURL = u }
}

// WithCurrentlyPlayingURL overrides the player endpoint.
func WithCurrentlyPlayingURL(u string) Option {
	return func(c *Client) { c.currentlyPlayingURL = u }
}

// NewClient creates a new Spotify API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:          &http.Client{Timeout: DefaultTimeout},
		tokenURL:            DefaultTokenURL,
		currentlyPlayingURL: DefaultCurrentlyPlayingURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessToken exchanges the refresh token for a new access token.
// A fresh token source is built on every call so nothing outlives the request.
func (c *Client) AccessToken(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &TokenExchangeError{StatusCode: retrieveErr.Response.StatusCode, Err: err}
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("token request: %w", err)
		}
		return "", &TokenExchangeError{Err: err}
	}
	if token.AccessToken == "" {
		return "", &TokenExchangeError{Err: errors.New("empty access token")}
	}

	return token.AccessToken, nil
}

// CurrentlyPlaying fetches the user's currently playing track.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*spotifyapi.CurrentlyPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.currentlyPlayingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating playback request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playback request: %w", err)
	}
	defer resp.Body.Close()

	// Nothing is playing. The body is never read.
	if resp.StatusCode == http.StatusNoContent {
		return &spotifyapi.CurrentlyPlaying{Playing: false, Item: nil}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PlaybackFetchError{StatusCode: resp.StatusCode}
	}

	var currentlyPlaying spotifyapi.CurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&currentlyPlaying); err != nil {
		return nil, &PlaybackFetchError{StatusCode: resp.StatusCode, Err: err}
	}

	return &currentlyPlaying, nil
}

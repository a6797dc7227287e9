package spotify

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when any of the three Spotify secrets is empty.
var ErrMissingCredentials = errors.New("missing required spotify credentials")

// TokenExchangeError is returned when the token endpoint rejects the refresh
// token or answers with a body that carries no access token.
// StatusCode is zero when the upstream status is not known.
type TokenExchangeError struct {
	StatusCode int
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode == 0 {
		return "token request failed: malformed token response"
	}
	return fmt.Sprintf("token request failed: %d", e.StatusCode)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// PlaybackFetchError is returned when the currently-playing endpoint answers
// with a non-success status other than 204, or with an unparseable body.
type PlaybackFetchError struct {
	StatusCode int
	Err        error
}

func (e *PlaybackFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spotify api request failed: %d: malformed playback response", e.StatusCode)
	}
	return fmt.Sprintf("spotify api request failed: %d", e.StatusCode)
}

func (e *PlaybackFetchError) Unwrap() error { return e.Err }

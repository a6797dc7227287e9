// Package nowplaying turns the listener's Spotify playback state into the
// small JSON payload served to "now playing" widgets.
package nowplaying

import (
	"context"
	"errors"

	spotifyapi "github.com/zmb3/spotify"

	"skidoodle/now-playing/internal/spotify"
)

// Source is the provider the pipeline reads from.
type Source interface {
	AccessToken(ctx context.Context, creds spotify.Credentials) (string, error)
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotifyapi.CurrentlyPlaying, error)
}

// Service runs the token exchange and playback fetch for one listener.
type Service struct {
	source Source
	creds  spotify.Credentials
}

// NewService creates a new Service.
func NewService(source Source, creds spotify.Credentials) *Service {
	return &Service{
		source: source,
		creds:  creds,
	}
}

// NowPlaying validates the credentials, exchanges the refresh token and maps
// the current playback into a View. Any failure discards whatever was fetched.
func (s *Service) NowPlaying(ctx context.Context) (View, error) {
	if err := s.creds.Validate(); err != nil {
		return View{}, err
	}

	accessToken, err := s.source.AccessToken(ctx, s.creds)
	if err != nil {
		return View{}, err
	}

	current, err := s.source.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		return View{}, err
	}

	return NewView(current), nil
}

// Failure kinds reported by Classify.
const (
	KindConfiguration = "configuration"
	KindTokenExchange = "token_exchange"
	KindPlaybackFetch = "playback_fetch"
	KindUnknown       = "unknown"
)

// Classify names the failure kind of err and the upstream status, if any.
func Classify(err error) (kind string, upstreamStatus int) {
	var (
		tokenErr *spotify.TokenExchangeError
		fetchErr *spotify.PlaybackFetchError
	)
	switch {
	case errors.Is(err, spotify.ErrMissingCredentials):
		return KindConfiguration, 0
	case errors.As(err, &tokenErr):
		return KindTokenExchange, tokenErr.StatusCode
	case errors.As(err, &fetchErr):
		return KindPlaybackFetch, fetchErr.StatusCode
	default:
		return KindUnknown, 0
	}
}

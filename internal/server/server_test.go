package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"skidoodle/now-playing/internal/nowplaying"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type staticFetcher struct {
	view nowplaying.View
	err  error
}

func (f staticFetcher) NowPlaying(context.Context) (nowplaying.View, error) {
	return f.view, f.err
}

func TestRoutes(t *testing.T) {
	song := nowplaying.View{IsPlaying: true, Title: "Song", Artist: "Artist", Album: "Album", AlbumArt: "http://img"}
	s := New(Options{Addr: ":0"}, staticFetcher{view: song}, testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "now playing",
			method:     http.MethodGet,
			path:       "/api/now-playing",
			wantStatus: http.StatusOK,
			wantBody:   `{"isPlaying":true,"title":"Song","artist":"Artist","album":"Album","albumArt":"http://img"}`,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/api/now-playing",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "post not allowed",
			method:     http.MethodPost,
			path:       "/api/now-playing",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "stream disabled",
			method:     http.MethodGet,
			path:       "/ws",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("creating request: %v", err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if got := strings.TrimSpace(string(body)); got != tt.wantBody {
					t.Errorf("body = %s, want %s", got, tt.wantBody)
				}
			}
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := New(Options{Addr: ":0"}, staticFetcher{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestFailureKeepsCORS(t *testing.T) {
	s := New(Options{Addr: ":0"}, staticFetcher{err: fmt.Errorf("boom")}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/now-playing", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	var body nowplaying.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "Error fetching now playing" || body.Details != "boom" {
		t.Errorf("body = %+v", body)
	}
}

func TestServe_StreamAndShutdown(t *testing.T) {
	song := nowplaying.View{IsPlaying: true, Title: "Song"}
	s := New(Options{
		Addr:           "127.0.0.1:0",
		Stream:         true,
		StreamInterval: time.Hour,
	}, staticFetcher{view: song}, testLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		cancel()
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	var got nowplaying.View
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("reading view: %v", err)
	}
	if got != song {
		t.Errorf("view = %+v, want %+v", got, song)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

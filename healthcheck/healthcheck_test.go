package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok"}`},
		{name: "bad status", status: http.StatusServiceUnavailable, body: `{"status":"ok"}`, wantErr: true},
		{name: "unhealthy body", status: http.StatusOK, body: `{"status":"degraded"}`, wantErr: true},
		{name: "not json", status: http.StatusOK, body: `OK`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					http.NotFound(w, r)
					return
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := probe(context.Background(), srv.Client(), srv.URL+"/health")
			if (err != nil) != tt.wantErr {
				t.Errorf("probe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

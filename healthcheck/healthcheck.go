// Command healthcheck probes the local /health endpoint for container health checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"skidoodle/now-playing/internal/server"
)

const (
	defaultPort    = "3000"
	requestTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = defaultPort
	}

	if err := probe(ctx, http.DefaultClient, "http://"+net.JoinHostPort("localhost", port)+"/health"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}
}

// probe succeeds only on a 200 answer whose body reports status "ok".
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var status server.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("unhealthy status %q", status.Status)
	}
	return nil
}

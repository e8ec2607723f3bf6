// Command healthcheck probes the assistant server's liveness endpoint.
// Container runtimes run it as the health check binary; the exit code is
// the whole interface.
package main

import (
	"net/http"
	"os"
	"time"
)

func main() {
	port := os.Getenv("ASSIST_PORT")
	if port == "" {
		port = "10000"
	}

	client := &http.Client{Timeout: 8 * time.Second}

	resp, err := client.Get("http://localhost:" + port + "/healthz")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

package main

import (
	"net/http"
	"os"
	"time"
)

func main() {
	addr := "http://localhost:8080/healthz"
	if v := os.Getenv("HEALTHCHECK_URL"); v != "" {
		addr = v
	}
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(addr)
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Client calls the probe endpoints of a running API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	verbose    io.Writer // nil unless verbose
}

// NewClient creates a new API client.
func NewClient(baseURL string, verbose io.Writer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		verbose:    verbose,
	}
}

// ReadyStatus is the body of GET /ready.
type ReadyStatus struct {
	Status    string                 `json:"status" yaml:"status"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// CheckResult is one dependency check of ReadyStatus.
type CheckResult struct {
	Status   string `json:"status" yaml:"status"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Ready fetches the readiness of the API. A 503 still carries the check
// results and is not an error.
func (c *Client) Ready(ctx context.Context) (*ReadyStatus, error) {
	url := c.baseURL + "/ready"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.verbose != nil {
		fmt.Fprintf(c.verbose, ">>> GET %s\n", url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.verbose != nil {
		fmt.Fprintf(c.verbose, "<<< %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var status ReadyStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &status, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show readiness of a running API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var verbose io.Writer
		if flagVerbose {
			verbose = cmd.ErrOrStderr()
		}

		status, err := NewClient(flagAPIURL, verbose).Ready(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if done, err := printStructured(out, status); done {
			return err
		}

		fmt.Fprintf(out, "API URL:  %s\n", flagAPIURL)
		fmt.Fprintf(out, "Status:   %s\n\n", status.Status)

		t := newTable(out, "CHECK", "STATUS", "DURATION", "ERROR")
		for _, name := range slices.Sorted(maps.Keys(status.Checks)) {
			c := status.Checks[name]
			t.AddRow(name, c.Status, c.Duration, c.Error)
		}
		return t.Flush()
	},
}

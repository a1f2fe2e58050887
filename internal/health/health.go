package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CheckUpstream GETs the schedule feed URL with the configured identity and
// reports reachability. Used as a startup preflight; failures are advisory.
func CheckUpstream(ctx context.Context, feedURL, userAgent string) error {
	if feedURL == "" {
		return fmt.Errorf("no feed URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("feed unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}
	return nil
}

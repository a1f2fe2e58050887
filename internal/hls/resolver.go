// Package hls resolves an HLS master manifest down to the single media
// playlist URL of its highest-resolution variant.
package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cricbox/willowcast/internal/fetch"
)

var (
	// ErrNoVariants means the manifest held zero parsable RESOLUTION variants.
	// Treated as transient: the resolver retries it inside the fetch budget.
	ErrNoVariants = errors.New("hls: manifest has no variants")

	// ErrMalformedManifest means the manifest URL itself does not have the
	// expected path shape (at least 3 segments).
	ErrMalformedManifest = errors.New("hls: malformed manifest url")
)

// Variant is one parsed master-manifest entry: pixel width from the
// RESOLUTION=WIDTHxHEIGHT attribute, paired with the relative media-playlist
// path on the immediately following line.
type Variant struct {
	Width int
	Path  string
}

// Resolver fetches and resolves master manifests.
type Resolver struct {
	Fetcher   *fetch.Fetcher
	UserAgent string
	// Timeout bounds each manifest fetch attempt. Manifests are small; this is
	// intentionally shorter than the schedule-feed timeout.
	Timeout time.Duration
}

const defaultTimeout = 10 * time.Second

// Resolve fetches manifestURL and returns the absolute media-playlist URL of
// the highest-resolution variant, rebuilt as {scheme}://{host}/v1/{path}.
//
// A manifest with zero variants is retried like a transport failure (same
// budget, no classification difference) and surfaces ErrNoVariants once the
// budget is spent.
func (r *Resolver) Resolve(ctx context.Context, manifestURL string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	h := http.Header{}
	if r.UserAgent != "" {
		h.Set("User-Agent", r.UserAgent)
	}
	body, err := r.Fetcher.Fetch(ctx, manifestURL, fetch.Options{
		Header:  h,
		Timeout: timeout,
		Validate: func(b []byte) error {
			if len(ParseVariants(b)) == 0 {
				return ErrNoVariants
			}
			return nil
		},
	})
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", manifestURL, err)
	}

	variants := ParseVariants(body)
	// Descending by width; stable so the first-seen variant wins a tie.
	sort.SliceStable(variants, func(i, j int) bool { return variants[i].Width > variants[j].Width })
	selected := variants[0]

	return rebuildURL(manifestURL, selected.Path)
}

// ParseVariants scans manifest lines with a two-line lookahead: every line
// carrying a RESOLUTION= token is paired with the trimmed content of the next
// line as its media-playlist path. A variant whose width is unparsable or
// whose companion line is missing, blank, or another tag is skipped, never
// fatal.
func ParseVariants(body []byte) []Variant {
	lines := strings.Split(string(body), "\n")
	var variants []Variant
	for i, line := range lines {
		idx := strings.Index(line, "RESOLUTION=")
		if idx < 0 {
			continue
		}
		width, ok := parseWidth(line[idx+len("RESOLUTION="):])
		if !ok {
			continue
		}
		if i+1 >= len(lines) {
			continue
		}
		path := strings.TrimSpace(lines[i+1])
		if path == "" || strings.HasPrefix(path, "#") {
			continue
		}
		variants = append(variants, Variant{Width: width, Path: path})
	}
	return variants
}

// parseWidth takes the integer before the literal 'x' of a WIDTHxHEIGHT token.
// The height is ignored.
func parseWidth(s string) (int, bool) {
	xi := strings.IndexByte(s, 'x')
	if xi <= 0 {
		return 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(s[:xi]))
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// rebuildURL rewrites the selected relative path into an absolute URL against
// the manifest's scheme and host, under the fixed /v1/ prefix. The leading
// ../../../ traversal prefix the CDN emits is stripped exactly once.
func rebuildURL(manifestURL, relPath string) (string, error) {
	u, err := url.Parse(manifestURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedManifest, manifestURL)
	}
	// Path-shape assumption carried over from the upstream CDN layout: master
	// manifests live at least three segments deep. The rebuilt URL does not
	// reuse those segments, but a shallower path means we are not looking at
	// the CDN we think we are.
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Path == "" || len(segments) < 3 {
		return "", fmt.Errorf("%w: path %q has fewer than 3 segments", ErrMalformedManifest, u.Path)
	}
	cleaned := strings.TrimPrefix(relPath, "../../../")
	return u.Scheme + "://" + u.Host + "/v1/" + cleaned, nil
}

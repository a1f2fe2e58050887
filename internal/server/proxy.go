package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/cricbox/willowcast/internal/httpclient"
)

// Segment downloads can outlive the shared client's timeout; the request
// context bounds the proxy call instead.
var proxyClient = httpclient.WithTimeout(0)

// handleStream proxies GET /stream?url=<target> to the client with the
// configured upstream identity. Pointing WILLOWCAST_PROXY_BASE at this
// endpoint (".../stream?url=") lets players that cannot set a User-Agent
// still reach the CDN.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	if !isHTTPOrHTTPS(target) {
		// Reject file://, ftp:// and friends; this endpoint must not become
		// a local-file or SSRF oracle.
		http.Error(w, "unsupported url", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", s.Cfg.UserAgent)
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := proxyClient.Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for _, k := range []string{"Content-Type", "Content-Length", "Accept-Ranges"} {
		if v := resp.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func isHTTPOrHTTPS(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

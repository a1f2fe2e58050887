package willow

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/envelope"
	"github.com/cricbox/willowcast/internal/fetch"
	"github.com/cricbox/willowcast/internal/hls"
	"github.com/cricbox/willowcast/internal/metrics"
)

// Locator looks up the live-data endpoint for one event and resolves every
// vocabulary-matched stream entry down to a playable URL.
type Locator struct {
	Fetcher  *fetch.Fetcher
	Resolver *hls.Resolver
	Cfg      *config.Config
}

// Locate returns resolved stream URLs keyed by output field name
// ("m3u8_eng_url", ...). Absence of live streams is a normal outcome: lookup
// failures, unknown labels, and unresolvable manifests all just leave the map
// smaller, down to empty.
func (l *Locator) Locate(ctx context.Context, matchID string) map[string]string {
	streams := make(map[string]string)
	body, err := l.Fetcher.Fetch(ctx, l.Cfg.LiveDataURL, fetch.Options{
		Header:   l.headers(),
		Cookies:  l.cookies(),
		Query:    url.Values{"matchid": {matchID}},
		Timeout:  l.Cfg.LiveDataTimeout,
		Validate: envelope.Validate,
	})
	if err != nil {
		log.Printf("locator: live data for match %s unavailable: %v", matchID, err)
		return streams
	}

	raw, err := envelope.Extract(body)
	if err != nil {
		// Validate already passed inside the fetch loop; only a racing body
		// truncation could land here.
		log.Printf("locator: live data for match %s: %v", matchID, err)
		return streams
	}
	var data liveData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("locator: live data for match %s undecodable: %v", matchID, err)
		return streams
	}

	for _, candidate := range data.Result {
		label, ok := l.labelFor(candidate.Title)
		if !ok || candidate.SecureURL == "" {
			continue
		}
		if _, done := streams[label.Key]; done {
			continue
		}
		resolved, err := l.Resolver.Resolve(ctx, candidate.SecureURL)
		if err != nil {
			log.Printf("locator: match %s %s manifest: %v", matchID, label.Language, err)
			continue
		}
		if resolved == "" {
			continue
		}
		streams[label.Key] = resolved
		metrics.StreamsResolved.WithLabelValues(label.Language).Inc()
	}
	return streams
}

func (l *Locator) labelFor(title string) (config.StreamLabel, bool) {
	for _, sl := range l.Cfg.Vocabulary {
		if sl.Title == title {
			return sl, true
		}
	}
	return config.StreamLabel{}, false
}

// headers is the fixed XHR-style identity the live-data endpoint expects.
func (l *Locator) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", l.Cfg.UserAgent)
	h.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

func (l *Locator) cookies() []*http.Cookie {
	creds := l.Cfg.Credentials
	return []*http.Cookie{
		{Name: "remember_token_30_days", Value: creds.SessionToken},
		{Name: "authenticated", Value: "True"},
		{Name: "user_id", Value: creds.UserID},
	}
}

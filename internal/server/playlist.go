package server

import (
	"strings"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/willow"
)

// renderPlaylist builds the M3U document: one EXTINF/EXTVLCOPT/URL triple per
// live event per available stream, vocabulary order, blank line between triples.
func renderPlaylist(live []willow.ResolvedEvent, cfg *config.Config) []byte {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i := range live {
		ev := &live[i]
		for _, label := range cfg.Vocabulary {
			streamURL := ev.Stream(label.Key)
			if streamURL == "" {
				continue
			}
			b.WriteString(`#EXTINF:-1 tvg-logo="` + cfg.PlaylistLogo + `" group-title="` + cfg.PlaylistGroup + `",`)
			b.WriteString(ev.Name + " (" + label.Language + ")\n")
			b.WriteString("#EXTVLCOPT:http-user-agent=" + cfg.UserAgent + "\n")
			b.WriteString(playlistURL(streamURL, cfg.ProxyBase) + "\n")
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// playlistURL prefixes the stream URL with the proxy base when one is
// configured. The proxy base is a plain prefix (cf-worker style), so
// "https://proxy.example/" + "https://cdn/..." is the rewritten form.
func playlistURL(streamURL, proxyBase string) string {
	if proxyBase == "" {
		return streamURL
	}
	return proxyBase + streamURL
}

package willow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/fetch"
	"github.com/cricbox/willowcast/internal/hls"
)

func testLocator(liveDataURL string) *Locator {
	cfg := config.Load()
	cfg.LiveDataURL = liveDataURL
	cfg.LiveDataTimeout = 0
	cfg.Credentials = config.Credentials{SessionToken: "tok", UserID: "2040826"}
	fetcher := &fetch.Fetcher{Client: &http.Client{}, MaxAttempts: 1, Delay: 0}
	return &Locator{
		Fetcher:  fetcher,
		Resolver: &hls.Resolver{Fetcher: fetcher, UserAgent: cfg.UserAgent},
		Cfg:      cfg,
	}
}

func TestLocate_resolvesKnownLabelsOnly(t *testing.T) {
	manifest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXT-X-STREAM-INF:RESOLUTION=1280x720\nhd.m3u8\n")
	}))
	defer manifest.Close()
	manifestURL := manifest.URL + "/a/b/master.m3u8"

	liveData := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("matchid"); got != "42" {
			t.Errorf("matchid = %q", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("X-Requested-With = %q", got)
		}
		if c, err := r.Cookie("remember_token_30_days"); err != nil || c.Value != "tok" {
			t.Errorf("session cookie = %v, %v", c, err)
		}
		fmt.Fprintf(w, `{"result":[
			{"title":"LIVE SOURCE ENGLISH","secureurl":%q},
			{"title":"LIVE SOURCE HINDI","secureurl":%q},
			{"title":"HIGHLIGHTS","secureurl":%q},
			{"title":"LIVE SOURCE ENGLISH","secureurl":%q}
		]}`, manifestURL, manifestURL, manifestURL, manifestURL)
	}))
	defer liveData.Close()

	streams := testLocator(liveData.URL).Locate(context.Background(), "42")
	if len(streams) != 2 {
		t.Fatalf("streams = %v", streams)
	}
	want := manifest.URL + "/v1/hd.m3u8"
	if streams["m3u8_eng_url"] != want || streams["m3u8_hin_url"] != want {
		t.Errorf("streams = %v, want both %q", streams, want)
	}
}

func TestLocate_emptyOrMissingResult(t *testing.T) {
	for _, body := range []string{`{"result":[]}`, `{}`, `{"status":"ok"}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		streams := testLocator(srv.URL).Locate(context.Background(), "7")
		srv.Close()
		if len(streams) != 0 {
			t.Errorf("body %q: streams = %v, want empty", body, streams)
		}
	}
}

func TestLocate_endpointFailureIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	streams := testLocator(srv.URL).Locate(context.Background(), "7")
	if len(streams) != 0 {
		t.Errorf("streams = %v, want empty", streams)
	}
}

func TestLocate_unresolvableManifestSkipped(t *testing.T) {
	deadManifest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer deadManifest.Close()

	liveData := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"result":[{"title":"LIVE SOURCE ENGLISH","secureurl":%q}]}`,
			deadManifest.URL+"/a/b/master.m3u8")
	}))
	defer liveData.Close()

	streams := testLocator(liveData.URL).Locate(context.Background(), "7")
	if len(streams) != 0 {
		t.Errorf("streams = %v, want empty", streams)
	}
}

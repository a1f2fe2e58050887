package willow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/fetch"
	"github.com/cricbox/willowcast/internal/hls"
)

// testTransformer builds a transformer whose live-data endpoint is srvURL.
func testTransformer(srvURL string) *Transformer {
	cfg := config.Load()
	cfg.LiveDataURL = srvURL
	cfg.LiveDataTimeout = 0
	fetcher := &fetch.Fetcher{Client: &http.Client{}, MaxAttempts: 1, Delay: 0}
	return &Transformer{Locator: &Locator{
		Fetcher:  fetcher,
		Resolver: &hls.Resolver{Fetcher: fetcher, UserAgent: cfg.UserAgent},
		Cfg:      cfg,
	}}
}

func TestTransform_classification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()
	tr := testTransformer(srv.URL)

	tests := []struct {
		name    string
		live    any
		started any
		want    string
	}{
		{"both flags set", float64(1), "1", StatusLive},
		{"live flag only", float64(1), "0", StatusUpcoming},
		{"started flag only", float64(0), "1", StatusUpcoming},
		{"neither set", float64(0), "0", StatusUpcoming},
		{"started flag numeric not string", float64(1), float64(1), StatusUpcoming},
		{"flags absent", nil, nil, StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tr.Transform(context.Background(), EventRecord{
				ID: "7", Name: "A vs B", IsMatchLive: tt.live, MatchStarted: tt.started,
			})
			if err != nil {
				t.Fatal(err)
			}
			if ev.Status != tt.want {
				t.Errorf("status = %q, want %q", ev.Status, tt.want)
			}
		})
	}
}

func TestTransform_missingIdentityDropsRecord(t *testing.T) {
	tr := testTransformer("http://127.0.0.1:0")
	if _, err := tr.Transform(context.Background(), EventRecord{Name: "no id"}); err == nil {
		t.Error("expected error for record without Id")
	}
	if _, err := tr.Transform(context.Background(), EventRecord{ID: "1"}); err == nil {
		t.Error("expected error for record without Name")
	}
}

func TestTransform_fieldMapping(t *testing.T) {
	tr := testTransformer("http://127.0.0.1:0")
	ev, err := tr.Transform(context.Background(), EventRecord{
		ID:           float64(42),
		Name:         "IND vs AUS",
		SeriesName:   "Test Series",
		TeamOneName:  "India",
		TeamTwoName:  "Australia",
		ImageTeamOne: "IND",
		ImageTeamTwo: "AUS",
		ShortScore:   "IND 120/2",
		GroundName:   "MCG",
		GMTStartDate: "2026-08-29",
		GMTStartTime: "09:30",
		IsMatchFree:  float64(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.TeamOneImg != "https://aimages.willow.tv/teamLogos/IND.png" {
		t.Errorf("TeamOneImg = %q", ev.TeamOneImg)
	}
	if !ev.IsMatchFree {
		t.Error("IsMatchFree not coerced to true")
	}
	if ev.Venue != "MCG" || ev.StartDate != "2026-08-29" || ev.StartTime != "09:30" {
		t.Errorf("venue/schedule mapping: %+v", ev)
	}
	if ev.Status != StatusUpcoming || ev.UserAgent != "" {
		t.Errorf("upcoming event leaked live-only fields: status=%q ua=%q", ev.Status, ev.UserAgent)
	}
	if ev.HasStreams() {
		t.Error("upcoming event has stream URLs")
	}
}

func TestTransform_liveWithoutStreamsStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"title":"SOME OTHER FEED","secureurl":"http://x/y/z/m.m3u8"}]}`))
	}))
	defer srv.Close()
	tr := testTransformer(srv.URL)

	ev, err := tr.Transform(context.Background(), EventRecord{
		ID: "42", Name: "IND vs AUS", IsMatchLive: float64(1), MatchStarted: "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Status != StatusLive {
		t.Fatalf("status = %q", ev.Status)
	}
	if ev.UserAgent == "" {
		t.Error("live event missing user_agent")
	}
	if ev.HasStreams() {
		t.Errorf("expected no streams, got %+v", ev)
	}
}

func TestCoercions(t *testing.T) {
	if stringID(float64(42)) != "42" || stringID("abc") != "abc" || stringID(nil) != "" {
		t.Error("stringID coercion broken")
	}
	if truthyInt("1") != 1 || truthyInt(float64(1)) != 1 || truthyInt(nil) != 0 {
		t.Error("truthyInt coercion broken")
	}
	if !truthyBool("1") || !truthyBool(true) || truthyBool("0") || truthyBool(nil) {
		t.Error("truthyBool coercion broken")
	}
	if flagString(float64(1)) != "" || flagString("1") != "1" {
		t.Error("flagString coercion broken")
	}
}

// Package willow turns the upstream schedule feed into the published schedule
// document: raw feed records in, classified events with resolved stream URLs out.
package willow

import "strconv"

// Event status values.
const (
	StatusLive     = "LIVE"
	StatusUpcoming = "UPCOMING"
)

// ScheduleFeed is the upstream payload shape. Either group may be absent.
type ScheduleFeed struct {
	Live     []EventRecord `json:"live"`
	Upcoming []EventRecord `json:"upcoming"`
}

// EventRecord is one raw feed record, fields exactly as supplied upstream.
// Numeric-ish fields come through as any because the feed is not consistent
// about numbers vs strings.
type EventRecord struct {
	ID           any    `json:"Id"`
	Name         string `json:"Name"`
	SeriesName   string `json:"SeriesName"`
	TeamOneName  string `json:"TeamOneName"`
	TeamTwoName  string `json:"TeamTwoName"`
	ImageTeamOne string `json:"ImageTeamOne"`
	ImageTeamTwo string `json:"ImageTeamTwo"`
	ShortScore   string `json:"ShortScore"`
	GroundName   string `json:"GroundName"`
	GMTStartDate string `json:"GMTStartDate"`
	GMTStartTime string `json:"GMTStartTime"`
	IsMatchLive  any    `json:"IsMatchLive"`
	MatchStarted any    `json:"MatchStarted"`
	IsMatchFree  any    `json:"IsMatchFree"`
}

// StreamCandidate is one entry from the live-data endpoint's result set.
type StreamCandidate struct {
	Title     string `json:"title"`
	SecureURL string `json:"secureurl"`
}

// liveData is the live-data endpoint payload; result defaults to empty.
type liveData struct {
	Result []StreamCandidate `json:"result"`
}

// ResolvedEvent is one published match. Stream URL fields are set only for
// live events whose manifests resolved; absent streams omit the key entirely.
type ResolvedEvent struct {
	ID          any    `json:"id"`
	Name        string `json:"name"`
	SeriesName  string `json:"series_name"`
	TeamOneName string `json:"team_one_name"`
	TeamTwoName string `json:"team_two_name"`
	TeamOneImg  string `json:"team_one_image"`
	TeamTwoImg  string `json:"team_two_image"`
	ShortScore  string `json:"short_score"`
	Venue       string `json:"venue"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	IsMatchFree bool   `json:"is_match_free"`
	Status      string `json:"status"`
	// UserAgent carries the fixed fetch identity only while live, so players
	// reading the JSON know what to spoof.
	UserAgent string `json:"user_agent"`

	EngURL  string `json:"m3u8_eng_url,omitempty"`
	HinURL  string `json:"m3u8_hin_url,omitempty"`
	Src1URL string `json:"m3u8_src1_url,omitempty"`
	Src2URL string `json:"m3u8_src2_url,omitempty"`
}

// Stream returns the resolved URL stored under key ("m3u8_eng_url" etc.), or "".
func (e *ResolvedEvent) Stream(key string) string {
	switch key {
	case "m3u8_eng_url":
		return e.EngURL
	case "m3u8_hin_url":
		return e.HinURL
	case "m3u8_src1_url":
		return e.Src1URL
	case "m3u8_src2_url":
		return e.Src2URL
	}
	return ""
}

// SetStream stores url under key. Unknown keys are dropped; the vocabulary is
// fixed even when the label set is configured down.
func (e *ResolvedEvent) SetStream(key, url string) {
	switch key {
	case "m3u8_eng_url":
		e.EngURL = url
	case "m3u8_hin_url":
		e.HinURL = url
	case "m3u8_src1_url":
		e.Src1URL = url
	case "m3u8_src2_url":
		e.Src2URL = url
	}
}

// HasStreams reports whether any stream URL is set.
func (e *ResolvedEvent) HasStreams() bool {
	return e.EngURL != "" || e.HinURL != "" || e.Src1URL != "" || e.Src2URL != ""
}

// Schedule is the published JSON document.
type Schedule struct {
	LastRefreshTime string          `json:"last_refresh_time"`
	LastRefreshDate string          `json:"last_refresh_date"`
	Author          string          `json:"author"`
	TotalMatches    int             `json:"total_matches"`
	LiveMatches     int             `json:"live_matches"`
	UpcomingMatches int             `json:"upcoming_matches"`
	Matches         []ResolvedEvent `json:"matches"`
	LastUpdated     string          `json:"last_updated"`
}

// LiveEvents returns the live slice of Matches (they always precede upcoming).
func (s *Schedule) LiveEvents() []ResolvedEvent {
	if s.LiveMatches > len(s.Matches) {
		return s.Matches
	}
	return s.Matches[:s.LiveMatches]
}

// stringID renders a raw feed identifier (number or string) as a string.
func stringID(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case nil:
		return ""
	}
	return ""
}

// truthyInt coerces a numeric-ish feed flag to an int.
func truthyInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// truthyBool coerces the feed's free/paid flag to a bool.
func truthyBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x == "1" || x == "true" || x == "True"
	}
	return false
}

// flagString renders a feed flag as its string form without coercing numbers.
func flagString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

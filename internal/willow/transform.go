package willow

import (
	"context"
	"fmt"
)

// Transformer maps raw feed records into published events.
type Transformer struct {
	Locator *Locator
}

// Transform maps one record. A mapping failure (missing identity fields) is
// local to the record: the caller drops it and moves on, it never aborts the
// feed. For live events the locator is consulted; a live event with zero
// resolvable streams is still published.
func (t *Transformer) Transform(ctx context.Context, rec EventRecord) (*ResolvedEvent, error) {
	id := stringID(rec.ID)
	if id == "" {
		return nil, fmt.Errorf("record missing Id")
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("record %s missing Name", id)
	}

	cfg := t.Locator.Cfg
	status := StatusUpcoming
	// Live requires both flags: the numeric live flag AND the string-typed
	// started flag. The feed flips them independently around match start.
	if truthyInt(rec.IsMatchLive) == 1 && flagString(rec.MatchStarted) == "1" {
		status = StatusLive
	}

	ev := &ResolvedEvent{
		ID:          rec.ID,
		Name:        rec.Name,
		SeriesName:  rec.SeriesName,
		TeamOneName: rec.TeamOneName,
		TeamTwoName: rec.TeamTwoName,
		TeamOneImg:  cfg.LogoURL(rec.ImageTeamOne),
		TeamTwoImg:  cfg.LogoURL(rec.ImageTeamTwo),
		ShortScore:  rec.ShortScore,
		Venue:       rec.GroundName,
		StartDate:   rec.GMTStartDate,
		StartTime:   rec.GMTStartTime,
		IsMatchFree: truthyBool(rec.IsMatchFree),
		Status:      status,
	}

	if status == StatusLive {
		ev.UserAgent = cfg.UserAgent
		for key, streamURL := range t.Locator.Locate(ctx, id) {
			ev.SetStream(key, streamURL)
		}
	}
	return ev, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	c := Load()
	if c.FeedURL != DefaultFeedURL {
		t.Errorf("FeedURL = %q", c.FeedURL)
	}
	if c.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", c.MaxAttempts)
	}
	if c.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v, want 3s", c.RetryDelay)
	}
	if len(c.Vocabulary) != 4 {
		t.Errorf("Vocabulary has %d entries, want 4", len(c.Vocabulary))
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("WILLOWCAST_FEED_URL", "http://example.com/feed.json")
	t.Setenv("WILLOWCAST_MAX_ATTEMPTS", "2")
	t.Setenv("WILLOWCAST_RETRY_DELAY", "3") // bare seconds
	t.Setenv("WILLOWCAST_FEED_TIMEOUT", "5s")
	t.Setenv("WILLOWCAST_USER_ID", "2040826")

	c := Load()
	if c.FeedURL != "http://example.com/feed.json" {
		t.Errorf("FeedURL = %q", c.FeedURL)
	}
	if c.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d", c.MaxAttempts)
	}
	if c.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v", c.RetryDelay)
	}
	if c.FeedTimeout != 5*time.Second {
		t.Errorf("FeedTimeout = %v", c.FeedTimeout)
	}
	if c.Credentials.UserID != "2040826" {
		t.Errorf("UserID = %q", c.Credentials.UserID)
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "willowcast.yml")
	body := `
author: cricket-bot
proxy_base: https://proxy.example/
credentials:
  session_token: tok123
  user_id: "77"
vocabulary:
  - title: LIVE SOURCE ENGLISH
    key: m3u8_eng_url
    language: ENGLISH
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c := Load()
	if err := c.ApplyFile(path); err != nil {
		t.Fatal(err)
	}
	if c.Author != "cricket-bot" {
		t.Errorf("Author = %q", c.Author)
	}
	if c.Credentials.SessionToken != "tok123" || c.Credentials.UserID != "77" {
		t.Errorf("Credentials = %+v", c.Credentials)
	}
	if len(c.Vocabulary) != 1 || c.Vocabulary[0].Language != "ENGLISH" {
		t.Errorf("Vocabulary = %+v", c.Vocabulary)
	}
	// Keys absent from the file keep their defaults.
	if c.FeedURL != DefaultFeedURL {
		t.Errorf("FeedURL = %q", c.FeedURL)
	}
}

func TestApplyFile_missing(t *testing.T) {
	c := Load()
	if err := c.ApplyFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLogoURL(t *testing.T) {
	c := Load()
	if got := c.LogoURL("IND"); got != "https://aimages.willow.tv/teamLogos/IND.png" {
		t.Errorf("LogoURL = %q", got)
	}
	if got := c.LogoURL(""); got != "" {
		t.Errorf("LogoURL(\"\") = %q, want empty", got)
	}
}

// Package config holds every tunable for willowcast. All upstream identity
// (credentials, spoofed user agent) and retry/timeout constants live here and
// are injected into the components at construction; nothing reads ambient
// globals at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the upstream endpoints and fixed identity. Overridable via env
// (WILLOWCAST_*) or the optional YAML file.
const (
	DefaultFeedURL     = "https://willowfeedsv2.willow.tv/willowds/home_page_US.json"
	DefaultLiveDataURL = "https://www.willow.tv/match_live_data_by_id"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

	DefaultTeamLogoBase  = "https://aimages.willow.tv/teamLogos/"
	DefaultPlaylistLogo  = "https://img.willow.tv/apps/wtv_logo_new_200_200.jpg"
	DefaultPlaylistGroup = "Live Cricket"
	DefaultPlaylistToken = "willow-tv.m3u"
	DefaultAuthor        = "willowcast"
	DefaultTimezone      = "Asia/Kolkata"

	DefaultTransformConcurrency = 4
)

// StreamLabel maps one upstream live-data title onto an output stream slot.
type StreamLabel struct {
	// Title is the exact label on the live-data endpoint's result entries.
	Title string `yaml:"title"`
	// Key is the output JSON field the resolved URL lands in.
	Key string `yaml:"key"`
	// Language is the human suffix used in the M3U playlist, e.g. "ENGLISH".
	Language string `yaml:"language"`
}

// DefaultVocabulary is the full deployed label set. Deployments that only
// carry the two language feeds can trim this via the YAML file.
func DefaultVocabulary() []StreamLabel {
	return []StreamLabel{
		{Title: "LIVE SOURCE ENGLISH", Key: "m3u8_eng_url", Language: "ENGLISH"},
		{Title: "LIVE SOURCE HINDI", Key: "m3u8_hin_url", Language: "HINDI"},
		{Title: "LIVE VIDEO SOURCE 1", Key: "m3u8_src1_url", Language: "SOURCE 1"},
		{Title: "LIVE VIDEO SOURCE 2", Key: "m3u8_src2_url", Language: "SOURCE 2"},
	}
}

// Credentials is the static upstream session bundle. The token is long-lived;
// refreshing it is out of scope and done by replacing the value.
type Credentials struct {
	SessionToken string `yaml:"session_token"`
	UserID       string `yaml:"user_id"`
}

// Config is the full runtime configuration.
type Config struct {
	Addr string `yaml:"addr"`

	FeedURL     string `yaml:"feed_url"`
	LiveDataURL string `yaml:"live_data_url"`
	UserAgent   string `yaml:"user_agent"`

	TeamLogoBase  string `yaml:"team_logo_base"`
	PlaylistLogo  string `yaml:"playlist_logo"`
	PlaylistGroup string `yaml:"playlist_group"`
	// PlaylistToken: a request path containing this token is served the M3U
	// playlist; every other path gets the JSON document.
	PlaylistToken string `yaml:"playlist_token"`
	// ProxyBase, when set, is prefixed onto every playlist stream URL.
	ProxyBase string `yaml:"proxy_base"`

	Author   string `yaml:"author"`
	Timezone string `yaml:"timezone"`

	MaxAttempts     int           `yaml:"max_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	FeedTimeout     time.Duration `yaml:"feed_timeout"`
	LiveDataTimeout time.Duration `yaml:"live_data_timeout"`
	ManifestTimeout time.Duration `yaml:"manifest_timeout"`

	// TransformConcurrency bounds the per-event workers in the pipeline.
	TransformConcurrency int `yaml:"transform_concurrency"`

	Credentials Credentials   `yaml:"credentials"`
	Vocabulary  []StreamLabel `yaml:"vocabulary"`
}

// Load reads configuration from the environment. Call godotenv.Load (or
// equivalent) first if a .env file should feed it.
func Load() *Config {
	c := &Config{
		Addr:                 getEnv("WILLOWCAST_ADDR", ":8080"),
		FeedURL:              getEnv("WILLOWCAST_FEED_URL", DefaultFeedURL),
		LiveDataURL:          getEnv("WILLOWCAST_LIVE_DATA_URL", DefaultLiveDataURL),
		UserAgent:            getEnv("WILLOWCAST_USER_AGENT", DefaultUserAgent),
		TeamLogoBase:         getEnv("WILLOWCAST_TEAM_LOGO_BASE", DefaultTeamLogoBase),
		PlaylistLogo:         getEnv("WILLOWCAST_PLAYLIST_LOGO", DefaultPlaylistLogo),
		PlaylistGroup:        getEnv("WILLOWCAST_PLAYLIST_GROUP", DefaultPlaylistGroup),
		PlaylistToken:        getEnv("WILLOWCAST_PLAYLIST_TOKEN", DefaultPlaylistToken),
		ProxyBase:            os.Getenv("WILLOWCAST_PROXY_BASE"),
		Author:               getEnv("WILLOWCAST_AUTHOR", DefaultAuthor),
		Timezone:             getEnv("WILLOWCAST_TZ", DefaultTimezone),
		MaxAttempts:          getEnvInt("WILLOWCAST_MAX_ATTEMPTS", 5),
		RetryDelay:           getEnvDuration("WILLOWCAST_RETRY_DELAY", 3*time.Second),
		FeedTimeout:          getEnvDuration("WILLOWCAST_FEED_TIMEOUT", 20*time.Second),
		LiveDataTimeout:      getEnvDuration("WILLOWCAST_LIVE_DATA_TIMEOUT", 10*time.Second),
		ManifestTimeout:      getEnvDuration("WILLOWCAST_MANIFEST_TIMEOUT", 10*time.Second),
		TransformConcurrency: getEnvInt("WILLOWCAST_TRANSFORM_CONCURRENCY", DefaultTransformConcurrency),
		Credentials: Credentials{
			SessionToken: os.Getenv("WILLOWCAST_SESSION_TOKEN"),
			UserID:       os.Getenv("WILLOWCAST_USER_ID"),
		},
		Vocabulary: DefaultVocabulary(),
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.TransformConcurrency <= 0 {
		c.TransformConcurrency = DefaultTransformConcurrency
	}
	return c
}

// ApplyFile overlays the YAML file at path onto c. Only keys present in the
// file are touched; a missing file is an error (the caller asked for it).
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if len(c.Vocabulary) == 0 {
		c.Vocabulary = DefaultVocabulary()
	}
	return nil
}

// LogoURL builds a team logo URL from the feed's image key.
func (c *Config) LogoURL(imageKey string) string {
	if imageKey == "" {
		return ""
	}
	return strings.TrimSuffix(c.TeamLogoBase, "/") + "/" + imageKey + ".png"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are taken as seconds, matching how the retry delay
		// was configured historically.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultVal
}

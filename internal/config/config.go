package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Site       SiteConfig                `yaml:"site"`
	Database   DatabaseConfig            `yaml:"database"`
	Categories map[string]CategoryConfig `yaml:"categories"`
	Gates      GatesConfig               `yaml:"gates"`
	Scoring    ScoringConfig             `yaml:"scoring"`
	Staging    StagingConfig             `yaml:"staging"`
	Depth      DepthConfig               `yaml:"depth"`
	Curation   CurationConfig            `yaml:"curation"`
	Telegram   TelegramConfig            `yaml:"telegram"`
	Rationale  RationaleConfig           `yaml:"rationale"`
	Snapshot   SnapshotConfig            `yaml:"snapshot"`
	Schedule   ScheduleConfig            `yaml:"schedule"`
	Server     ServerConfig              `yaml:"server"`
	LogLevel   string                    `yaml:"log_level"`
}

// SiteConfig locates the published site files.
type SiteConfig struct {
	PendingPath string `yaml:"pending_path"`
	FeedPath    string `yaml:"feed_path"`
	ArchivePath string `yaml:"archive_path"`
	RepoDir     string `yaml:"repo_dir"` // git worktree to publish from; "" disables pushing
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CategoryConfig is one curated section: its feeds, depth threshold,
// and optional topic keyword blocklist.
type CategoryConfig struct {
	Feeds         []FeedItem `yaml:"feeds"`
	MinWords      int        `yaml:"min_words"`
	BlockedTopics []string   `yaml:"blocked_topics"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// GatesConfig configures the reject gates applied before scoring.
type GatesConfig struct {
	BlockedDomains    []string `yaml:"blocked_domains"`
	ClickbaitPatterns []string `yaml:"clickbait_patterns"`
	MaxAgeDays        int      `yaml:"max_age_days"`
}

// MaxAge returns the staleness cutoff as a duration.
func (g GatesConfig) MaxAge() time.Duration {
	if g.MaxAgeDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(g.MaxAgeDays) * 24 * time.Hour
}

// ScoringConfig configures base-score weights.
type ScoringConfig struct {
	DomainWeights      map[string]float64 `yaml:"domain_weights"`
	SourceWeights      map[string]float64 `yaml:"source_weights"`
	MinTeaserChars     int                `yaml:"min_teaser_chars"`
	ShortTeaserPenalty float64            `yaml:"short_teaser_penalty"`
}

// StagingConfig configures per-category selection.
type StagingConfig struct {
	SelectPerCategory int `yaml:"select_per_category"`
	OverfetchFactor   int `yaml:"overfetch_factor"`
	PerFeedLimit      int `yaml:"per_feed_limit"`
	TeaserMaxChars    int `yaml:"teaser_max_chars"`
}

// DepthConfig configures the word-count gate.
type DepthConfig struct {
	DefaultMinWords int            `yaml:"default_min_words"`
	DomainMinWords  map[string]int `yaml:"domain_min_words"`
	FetchTimeout    string         `yaml:"fetch_timeout"`
}

// ParseFetchTimeout returns the article fetch timeout as time.Duration.
func (d DepthConfig) ParseFetchTimeout() time.Duration {
	t, err := time.ParseDuration(d.FetchTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return t
}

// CurationConfig configures the live feed invariants.
type CurationConfig struct {
	LiveCap        int `yaml:"live_cap"`
	MaxLiveAgeDays int `yaml:"max_live_age_days"`
}

// MaxLiveAge returns how long approved articles stay live.
func (c CurationConfig) MaxLiveAge() time.Duration {
	if c.MaxLiveAgeDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.MaxLiveAgeDays) * 24 * time.Hour
}

// TelegramConfig configures the review bot.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

// RationaleConfig configures the optional one-line "why it matters"
// generator.
type RationaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
}

// SnapshotConfig configures archived-snapshot lookups.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// ScheduleConfig configures the collection daemon interval.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with the stock feed tables and thresholds.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			PendingPath: "./pending_articles.json",
			FeedPath:    "./articles.json",
			ArchivePath: "./archive.json",
		},
		Database: DatabaseConfig{Path: "./spsdaily.db"},
		Categories: map[string]CategoryConfig{
			"science": {
				MinWords: 700,
				Feeds: []FeedItem{
					{Name: "Scientific American", URL: "https://www.scientificamerican.com/feed/"},
					{Name: "New Scientist", URL: "https://www.newscientist.com/feed/home/"},
					{Name: "Nautilus", URL: "https://nautil.us/feed/"},
					{Name: "Quanta Magazine", URL: "https://www.quantamagazine.org/feed/"},
					{Name: "Ars Technica Science", URL: "https://feeds.arstechnica.com/arstechnica/science"},
					{Name: "MIT Tech Review", URL: "https://www.technologyreview.com/feed/"},
					{Name: "Nature News", URL: "https://www.nature.com/nature.rss"},
					{Name: "Science Daily", URL: "https://www.sciencedaily.com/rss/all.xml"},
					{Name: "Discover Magazine", URL: "https://www.discovermagazine.com/rss"},
					{Name: "Big Think", URL: "https://bigthink.com/feed/"},
					{Name: "Wired Science", URL: "https://www.wired.com/feed/category/science/latest/rss"},
					{Name: "Smithsonian", URL: "https://www.smithsonianmag.com/rss/science-nature/"},
				},
			},
			"philosophy": {
				MinWords: 1000,
				Feeds: []FeedItem{
					{Name: "Aeon", URL: "https://aeon.co/feed.rss"},
					{Name: "The New Atlantis", URL: "https://www.thenewatlantis.com/rss"},
					{Name: "Philosophy Now", URL: "https://philosophynow.org/rss"},
					{Name: "Daily Nous", URL: "https://dailynous.com/feed/"},
					{Name: "3 Quarks Daily", URL: "https://3quarksdaily.com/feed/"},
					{Name: "The Point", URL: "https://thepointmag.com/feed/"},
					{Name: "Public Domain Review", URL: "https://publicdomainreview.org/rss.xml"},
					{Name: "Hedgehog Review", URL: "https://hedgehogreview.com/feed"},
					{Name: "The Drift", URL: "https://www.thedriftmag.com/feed/"},
					{Name: "Liberties Journal", URL: "https://libertiesjournal.com/feed/"},
				},
			},
			"society": {
				MinWords: 700,
				Feeds: []FeedItem{
					{Name: "The Atlantic Ideas", URL: "https://www.theatlantic.com/feed/channel/ideas/"},
					{Name: "Noema Magazine", URL: "https://www.noemamag.com/feed/"},
					{Name: "Boston Review", URL: "https://www.bostonreview.net/feed/"},
					{Name: "Jacobin", URL: "https://jacobin.com/feed/"},
					{Name: "The Baffler", URL: "https://thebaffler.com/feed"},
					{Name: "n+1", URL: "https://www.nplusonemag.com/feed/"},
					{Name: "Current Affairs", URL: "https://www.currentaffairs.org/feed"},
					{Name: "Prospect UK", URL: "https://www.prospectmagazine.co.uk/feed"},
					{Name: "New Statesman", URL: "https://www.newstatesman.com/feed"},
					{Name: "The Conversation", URL: "https://theconversation.com/us/articles.rss"},
					{Name: "JSTOR Daily", URL: "https://daily.jstor.org/feed/"},
					{Name: "Project Syndicate", URL: "https://www.project-syndicate.org/rss"},
				},
			},
			"books": {
				MinWords: 600,
				Feeds: []FeedItem{
					{Name: "LA Review of Books", URL: "https://lareviewofbooks.org/feed/"},
					{Name: "London Review of Books", URL: "https://www.lrb.co.uk/feed"},
					{Name: "NY Review of Books", URL: "https://www.nybooks.com/feed/"},
					{Name: "The TLS", URL: "https://www.the-tls.co.uk/feed/"},
					{Name: "Literary Hub", URL: "https://lithub.com/feed/"},
					{Name: "Public Books", URL: "https://www.publicbooks.org/feed/"},
				},
				// Literary and academic reviews only; partisan commentary
				// belongs in society feeds, not book reviews.
				BlockedTopics: []string{
					"trump", "biden", "obama", "clinton", "desantis", "pelosi", "mcconnell",
					"aoc", "ocasio-cortez", "bernie", "sanders", "musk", "zuckerberg",
					"republican", "democrat", "gop", "maga", "liberal", "conservative",
					"election", "ballot", "vote", "campaign", "inauguration", "mayor",
					"governor", "senator", "congressman", "parliament", "brexit",
					"abortion rights", "gun control", "immigration policy", "border wall",
					"collectivism", "socialism", "fascism", "marxist", "woke",
					"left-wing", "right-wing", "far-left", "far-right",
				},
			},
		},
		Gates: GatesConfig{
			MaxAgeDays: 7,
			ClickbaitPatterns: []string{
				`^\s*\d+\s+(ways|things|reasons|signs|tips|tricks|facts|lessons)\b`,
				`you won'?t believe`,
				`\bthis one (weird )?trick\b`,
				`\bwhat happens next\b`,
				`\bwill (shock|blow your mind)\b`,
			},
		},
		Scoring: ScoringConfig{
			DomainWeights: map[string]float64{
				"aeon.co":              1.5,
				"quantamagazine.org":   1.5,
				"nautil.us":            1.2,
				"noemamag.com":         1.2,
				"lrb.co.uk":            1.2,
				"nybooks.com":          1.2,
				"thenewatlantis.com":   1.0,
				"hedgehogreview.com":   1.0,
				"sciencedaily.com":     -0.5,
			},
			MinTeaserChars:     80,
			ShortTeaserPenalty: -0.5,
		},
		Staging: StagingConfig{
			SelectPerCategory: 3,
			OverfetchFactor:   3,
			PerFeedLimit:      10,
			TeaserMaxChars:    200,
		},
		Depth: DepthConfig{
			DefaultMinWords: 600,
			FetchTimeout:    "15s",
		},
		Curation: CurationConfig{
			LiveCap:        15,
			MaxLiveAgeDays: 7,
		},
		Rationale: RationaleConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Snapshot: SnapshotConfig{Enabled: true},
		Schedule: ScheduleConfig{CollectInterval: "6h"},
		Server:   ServerConfig{Port: 8080},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file and applies env var
// overrides. With an empty path, ./spsdaily.yaml is used when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("spsdaily.yaml"); err == nil {
			path = "spsdaily.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPSDAILY_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SPSDAILY_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("SPSDAILY_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SPSDAILY_REPO_DIR"); v != "" {
		cfg.Site.RepoDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Rationale.APIKey = v
		cfg.Rationale.Enabled = true
		cfg.Rationale.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Rationale.APIKey = v
		cfg.Rationale.Enabled = true
		cfg.Rationale.Provider = "anthropic"
	}
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pashkov/biliwatch/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen      string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=Control API listen address"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		AdminTokens []string      `yaml:"admin_tokens" json:"admin_tokens" jsonschema:"description=Caller identities allowed to use the control API; empty list denies all"`
	} `yaml:"server" json:"server" jsonschema:"description=Control server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:biliwatch.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=4,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=2,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Monitor MonitorConfig `yaml:"monitor" json:"monitor" jsonschema:"description=Poll loop and dedup policy"`

	Images ImagesConfig `yaml:"images" json:"images" jsonschema:"description=Image delivery configuration"`

	SendAPI struct {
		Endpoint string `yaml:"endpoint" json:"endpoint" jsonschema:"required,description=Base URL of the send-API delivery channel"`
		Token    string `yaml:"token" json:"token" jsonschema:"description=Bearer token for the send-API"`
	} `yaml:"send_api" json:"send_api" jsonschema:"description=Outbound delivery channel"`

	Subscriptions Subscriptions `yaml:"subscriptions" json:"subscriptions" jsonschema:"description=Monitored authors and their destinations"`
}

// MonitorConfig holds poll loop, source preference and staleness policy.
type MonitorConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Enable the poll loop"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"default=2m,description=Base poll interval"`
	PollJitter     time.Duration `yaml:"poll_jitter" json:"poll_jitter" jsonschema:"default=10s,description=Symmetric random jitter added to the interval"`
	LegacyFirst    bool          `yaml:"legacy_first" json:"legacy_first" jsonschema:"default=false,description=Prefer the legacy API over the primary one"`
	MaxPushAge     time.Duration `yaml:"max_push_age" json:"max_push_age" jsonschema:"default=24h,description=Items older than this are recorded but not pushed"`
	ColdStartGrace time.Duration `yaml:"cold_start_grace" json:"cold_start_grace" jsonschema:"description=Suppress items published before process start minus this window"`
	BackfillWindow time.Duration `yaml:"backfill_window" json:"backfill_window" jsonschema:"description=Push on first observation when published within this window; 0 never pushes"`
	Cookie         string        `yaml:"cookie" json:"cookie" jsonschema:"description=Session cookie string for the upstream APIs"`
	DebugDump      bool          `yaml:"debug_dump" json:"debug_dump" jsonschema:"default=false,description=Write raw and normalized payload artifacts"`
	DebugDumpDir   string        `yaml:"debug_dump_dir" json:"debug_dump_dir" jsonschema:"default=./dumps,description=Debug artifact directory"`
	DebugDumpUIDs  []string      `yaml:"debug_dump_uids" json:"debug_dump_uids" jsonschema:"description=Whitelist of uids to dump; empty dumps all"`
}

// ImagesConfig holds image delivery settings.
type ImagesConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Deliver images"`
	MaxCount       int           `yaml:"max_count" json:"max_count" jsonschema:"default=3,description=Skip images above this count in favor of the permalink"`
	MaxBytes       int64         `yaml:"max_bytes" json:"max_bytes" jsonschema:"default=8388608,description=Inline payload size limit in bytes"`
	DownscaleWidth int           `yaml:"downscale_width" json:"downscale_width" jsonschema:"default=1280,description=Max width when recompressing oversized images"`
	Quality        int           `yaml:"quality" json:"quality" jsonschema:"default=85,description=JPEG quality for recompressed images"`
	PerImageDelay  time.Duration `yaml:"per_image_delay" json:"per_image_delay" jsonschema:"default=500ms,description=Pacing between image sends to one destination"`
	ScratchDir     string        `yaml:"scratch_dir" json:"scratch_dir" jsonschema:"description=Directory for tier-three scratch files"`
}

// Subscriptions supports both the legacy flat list and the richer routes
// form; when both are present they are unioned by uid.
type Subscriptions struct {
	Users  []LegacySubscription `yaml:"users" json:"users" jsonschema:"description=Legacy form: uid plus destination groups"`
	Routes []RouteConfig        `yaml:"routes" json:"routes" jsonschema:"description=Richer form: uid plus destination list"`
}

// LegacySubscription is the historic {uid, groups} form.
type LegacySubscription struct {
	UID    string   `yaml:"uid" json:"uid"`
	UIDs   []string `yaml:"uids" json:"uids"`
	Groups []string `yaml:"groups" json:"groups"`
}

// RouteConfig is the current routing form.
type RouteConfig struct {
	UID          string   `yaml:"uid" json:"uid"`
	Destinations []string `yaml:"destinations" json:"destinations"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	// cookie values are often pasted straight from the browser and arrive
	// URL-encoded
	if strings.Contains(cfg.Monitor.Cookie, "%") {
		if decoded, err := url.QueryUnescape(cfg.Monitor.Cookie); err == nil {
			cfg.Monitor.Cookie = decoded
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:biliwatch.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = 2 * time.Minute
	}
	if cfg.Monitor.PollJitter == 0 {
		cfg.Monitor.PollJitter = 10 * time.Second
	}
	if cfg.Monitor.MaxPushAge == 0 {
		cfg.Monitor.MaxPushAge = 24 * time.Hour
	}
	if cfg.Monitor.DebugDumpDir == "" {
		cfg.Monitor.DebugDumpDir = "./dumps"
	}

	if cfg.Images.MaxCount == 0 {
		cfg.Images.MaxCount = 3
	}
	if cfg.Images.MaxBytes == 0 {
		cfg.Images.MaxBytes = 8 << 20
	}
	if cfg.Images.DownscaleWidth == 0 {
		cfg.Images.DownscaleWidth = 1280
	}
	if cfg.Images.Quality == 0 {
		cfg.Images.Quality = 85
	}
	if cfg.Images.PerImageDelay == 0 {
		cfg.Images.PerImageDelay = 500 * time.Millisecond
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.SendAPI.Endpoint == "" {
		return fmt.Errorf("send_api.endpoint is required")
	}
	if cfg.Monitor.PollInterval < 10*time.Second {
		return fmt.Errorf("monitor.poll_interval must be at least 10 seconds")
	}
	if cfg.Monitor.PollJitter < 0 || cfg.Monitor.PollJitter >= cfg.Monitor.PollInterval {
		return fmt.Errorf("monitor.poll_jitter must be non-negative and below the poll interval")
	}
	if cfg.Images.Quality < 1 || cfg.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be between 1 and 100")
	}
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1 second")
	}
	if len(cfg.Routes()) == 0 {
		return fmt.Errorf("subscriptions must list at least one uid with destinations")
	}
	return nil
}

// Routes unions the legacy and current subscription forms into one routing
// table, merging destination sets per uid and dropping entries without
// destinations.
func (c *Config) Routes() []domain.Route {
	merged := map[string][]string{}
	var order []string

	add := func(uid string, dests []string) {
		uid = strings.TrimSpace(uid)
		if uid == "" || len(dests) == 0 {
			return
		}
		if _, ok := merged[uid]; !ok {
			order = append(order, uid)
		}
		for _, d := range dests {
			if d == "" || slices.Contains(merged[uid], d) {
				continue
			}
			merged[uid] = append(merged[uid], d)
		}
	}

	for _, sub := range c.Subscriptions.Users {
		add(sub.UID, sub.Groups)
		for _, uid := range sub.UIDs {
			add(uid, sub.Groups)
		}
	}
	for _, route := range c.Subscriptions.Routes {
		add(route.UID, route.Destinations)
	}

	routes := make([]domain.Route, 0, len(order))
	for _, uid := range order {
		if len(merged[uid]) == 0 {
			continue
		}
		routes = append(routes, domain.Route{UID: uid, Destinations: merged[uid]})
	}
	return routes
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

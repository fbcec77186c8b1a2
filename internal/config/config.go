package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dgallion1/lsearchy/internal/parser"
)

// Scan modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

type Config struct {
	// Scan
	Root       string
	Query      string
	Mode       string
	Workers    int
	SkipHidden bool
	Debug      bool

	// Extraction
	ToolTimeout          time.Duration
	PDFFallbackPdftotext bool
	LegacyRawFallback    bool
	LegacyRawLines       int
	MaxEntryBytes        int64

	// Output
	Output  string
	NoColor bool

	// HTTP service
	Port         string
	APIKey       string
	ServeRoot    string
	ScanWorkers  int
	MaxQueueSize int
	JobTTL       time.Duration
}

// fileConfig mirrors Config for TOML decoding. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it sets.
type fileConfig struct {
	Root       *string `toml:"root"`
	Query      *string `toml:"query"`
	Mode       *string `toml:"mode"`
	Workers    *int    `toml:"workers"`
	SkipHidden *bool   `toml:"skip_hidden"`
	Debug      *bool   `toml:"debug"`

	ToolTimeout          *string `toml:"tool_timeout"`
	PDFFallbackPdftotext *bool   `toml:"pdf_fallback_pdftotext"`
	LegacyRawFallback    *bool   `toml:"legacy_raw_fallback"`
	LegacyRawLines       *int    `toml:"legacy_raw_lines"`
	MaxEntryBytes        *int64  `toml:"max_entry_bytes"`

	Output  *string `toml:"output"`
	NoColor *bool   `toml:"no_color"`

	Port         *string `toml:"port"`
	APIKey       *string `toml:"api_key"`
	ServeRoot    *string `toml:"serve_root"`
	ScanWorkers  *int    `toml:"scan_workers"`
	MaxQueueSize *int    `toml:"max_queue_size"`
	JobTTL       *string `toml:"job_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := parser.DefaultOptions()
	return Config{
		Mode:       ModeSequential,
		Workers:    4,
		SkipHidden: true,

		ToolTimeout:          opts.ToolTimeout,
		PDFFallbackPdftotext: opts.PDFFallbackPdftotext,
		LegacyRawFallback:    opts.LegacyRawFallback,
		LegacyRawLines:       opts.LegacyRawLines,
		MaxEntryBytes:        opts.MaxEntryBytes,

		Port:         "8090",
		ServeRoot:    ".",
		ScanWorkers:  2,
		MaxQueueSize: 100,
		JobTTL:       1 * time.Hour,
	}
}

// Load builds a Config from defaults, then the TOML file at path (if path is
// non-empty), then LSEARCHY_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.mergeEnv()
	cfg.clamp()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Root, fc.Root)
	setString(&c.Query, fc.Query)
	setString(&c.Mode, fc.Mode)
	setInt(&c.Workers, fc.Workers)
	setBool(&c.SkipHidden, fc.SkipHidden)
	setBool(&c.Debug, fc.Debug)

	if err := setDuration(&c.ToolTimeout, fc.ToolTimeout, "tool_timeout"); err != nil {
		return err
	}
	setBool(&c.PDFFallbackPdftotext, fc.PDFFallbackPdftotext)
	setBool(&c.LegacyRawFallback, fc.LegacyRawFallback)
	setInt(&c.LegacyRawLines, fc.LegacyRawLines)
	if fc.MaxEntryBytes != nil {
		c.MaxEntryBytes = *fc.MaxEntryBytes
	}

	setString(&c.Output, fc.Output)
	setBool(&c.NoColor, fc.NoColor)

	setString(&c.Port, fc.Port)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.ServeRoot, fc.ServeRoot)
	setInt(&c.ScanWorkers, fc.ScanWorkers)
	setInt(&c.MaxQueueSize, fc.MaxQueueSize)
	return setDuration(&c.JobTTL, fc.JobTTL, "job_ttl")
}

func (c *Config) mergeEnv() {
	c.Root = envOr("LSEARCHY_ROOT", c.Root)
	c.Query = envOr("LSEARCHY_QUERY", c.Query)
	c.Mode = envOr("LSEARCHY_MODE", c.Mode)
	c.Workers = envInt("LSEARCHY_WORKERS", c.Workers)
	c.SkipHidden = envBool("LSEARCHY_SKIP_HIDDEN", c.SkipHidden)
	c.Debug = envBool("LSEARCHY_DEBUG", c.Debug)

	c.ToolTimeout = envDuration("LSEARCHY_TOOL_TIMEOUT", c.ToolTimeout)
	c.PDFFallbackPdftotext = envBool("LSEARCHY_PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
	c.LegacyRawFallback = envBool("LSEARCHY_LEGACY_RAW_FALLBACK", c.LegacyRawFallback)
	c.LegacyRawLines = envInt("LSEARCHY_LEGACY_RAW_LINES", c.LegacyRawLines)
	c.MaxEntryBytes = envInt64("LSEARCHY_MAX_ENTRY_BYTES", c.MaxEntryBytes)

	c.Output = envOr("LSEARCHY_OUTPUT", c.Output)
	c.NoColor = envBool("LSEARCHY_NO_COLOR", c.NoColor)

	c.Port = envOr("LSEARCHY_PORT", c.Port)
	c.APIKey = envOr("LSEARCHY_API_KEY", c.APIKey)
	c.ServeRoot = envOr("LSEARCHY_SERVE_ROOT", c.ServeRoot)
	c.ScanWorkers = envInt("LSEARCHY_SCAN_WORKERS", c.ScanWorkers)
	c.MaxQueueSize = envInt("LSEARCHY_MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.JobTTL = envDuration("LSEARCHY_JOB_TTL", c.JobTTL)
}

// clamp replaces non-positive sizes with their defaults.
func (c *Config) clamp() {
	def := Default()
	if c.LegacyRawLines <= 0 {
		c.LegacyRawLines = def.LegacyRawLines
	}
	if c.MaxEntryBytes <= 0 {
		c.MaxEntryBytes = def.MaxEntryBytes
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = def.ToolTimeout
	}
	if c.ScanWorkers <= 0 {
		c.ScanWorkers = def.ScanWorkers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
}

// Validate checks the settings every scan needs.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeSequential:
	case ModeConcurrent:
		if c.Workers <= 0 {
			return fmt.Errorf("workers must be positive in %s mode, got %d", ModeConcurrent, c.Workers)
		}
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeSequential, ModeConcurrent)
	}
	return nil
}

// ValidateServe checks the settings the HTTP service needs on top of Validate.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("LSEARCHY_API_KEY is required")
	}
	info, err := os.Stat(c.ServeRoot)
	if err != nil {
		return fmt.Errorf("serve_root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("serve_root %s is not a directory", c.ServeRoot)
	}
	return nil
}

// ParserOptions returns the extractor settings.
func (c Config) ParserOptions() parser.Options {
	return parser.Options{
		ToolTimeout:          c.ToolTimeout,
		PDFFallbackPdftotext: c.PDFFallbackPdftotext,
		LegacyRawFallback:    c.LegacyRawFallback,
		LegacyRawLines:       c.LegacyRawLines,
		MaxEntryBytes:        c.MaxEntryBytes,
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

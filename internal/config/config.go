package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	PagekitAPIKey string

	// Browser origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string

	// Site
	SiteHost        string
	SiteTitle       string
	SiteDescription string

	// Link policy
	MarkExternalLinks bool
	AffiliateLinks    []string // "Keyword=URL" pairs linked in article text.
	AffiliateLimit    int      // Links per keyword per page.

	// Table of contents
	TOCEnabled      bool
	ContentSelector string
	TOCTitle        string
	TOCIDPrefix     string
	TOCMinHeadings  int
	TOCStyle        string // Inline declarations merged over the default container style.
	TOCLinkColor    string

	// Client behaviors
	SmoothScroll  bool
	ProgressBar   bool
	ProgressColor string
	Analytics     bool
	AnalyticsID   string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Enhance results kept by content hash. Zero disables the cache.
	EnhanceCacheSize int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Chroma style for Markdown code blocks; "none" disables highlighting.
	CodeStyle string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PagekitAPIKey: os.Getenv("PAGEKIT_API_KEY"),
		CORSOrigins:   envList("CORS_ORIGINS"),

		SiteHost:        os.Getenv("SITE_HOST"),
		SiteTitle:       envOr("SITE_TITLE", "AI Tools Hub"),
		SiteDescription: os.Getenv("SITE_DESCRIPTION"),

		MarkExternalLinks: envBool("MARK_EXTERNAL_LINKS", true),
		AffiliateLinks:    envList("AFFILIATE_LINKS"),
		AffiliateLimit:    envInt("AFFILIATE_LIMIT", 2),

		TOCEnabled:      envBool("TOC_ENABLED", true),
		ContentSelector: envOr("CONTENT_SELECTOR", ".article-content"),
		TOCTitle:        envOr("TOC_TITLE", "Table of Contents"),
		TOCIDPrefix:     envOr("TOC_ID_PREFIX", "heading-"),
		TOCMinHeadings:  envInt("TOC_MIN_HEADINGS", 3),
		TOCStyle:        os.Getenv("TOC_STYLE"),
		TOCLinkColor:    envOr("TOC_LINK_COLOR", "#6366f1"),

		SmoothScroll:  envBool("SMOOTH_SCROLL", true),
		ProgressBar:   envBool("PROGRESS_BAR", true),
		ProgressColor: envOr("PROGRESS_COLOR", "#6366f1"),
		Analytics:     envBool("ANALYTICS", true),
		AnalyticsID:   os.Getenv("ANALYTICS_ID"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		EnhanceCacheSize: envInt("ENHANCE_CACHE_SIZE", 256),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		CodeStyle: envOr("CODE_STYLE", "github"),
	}

	if cfg.TOCMinHeadings <= 0 {
		cfg.TOCMinHeadings = 3
	}
	if cfg.AffiliateLimit <= 0 {
		cfg.AffiliateLimit = 2
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.EnhanceCacheSize < 0 {
		cfg.EnhanceCacheSize = 0
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings required by the HTTP server.
func (c Config) Validate() error {
	if c.PagekitAPIKey == "" {
		return fmt.Errorf("PAGEKIT_API_KEY is required")
	}
	if c.ContentSelector == "" {
		return fmt.Errorf("CONTENT_SELECTOR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blank items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
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

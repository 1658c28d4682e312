package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres  PostgresConfig
	S3        S3Config
	Scheduler SchedulerConfig
	Scraper   ScraperConfig
	DBPath    string
	LogPath   string
	LogLevel  string
	Sites     map[string]*SiteConfig
}

type PostgresConfig struct {
	URL string
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	Workers int
	DelayMS int
}

// SiteConfig describes one listing-page "shape". The extraction engine is
// generic; everything site-specific (selector markers, media hosts, stop
// headings) lives here so schema drift is a config change, not a code change.
type SiteConfig struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	Handler        string           `yaml:"handler"`
	SearchURL      string           `yaml:"search_url"`
	RateLimitMS    int              `yaml:"rate_limit_ms"`
	MaxSearchPages int              `yaml:"max_search_pages"`
	Search         SearchConfig     `yaml:"search"`
	Extraction     ExtractionConfig `yaml:"extraction"`
}

type SearchConfig struct {
	CardSelector       string `yaml:"card_selector"`
	DetailLinkSelector string `yaml:"detail_link_selector"`
	NextPageSelector   string `yaml:"next_page_selector"`
}

type ExtractionConfig struct {
	CurrencySymbol       string   `yaml:"currency_symbol"`
	MinPlausiblePrice    float64  `yaml:"min_plausible_price"`
	PriceSelectors       []string `yaml:"price_selectors"`
	GallerySelectors     []string `yaml:"gallery_selectors"`
	PhoneRevealSelectors []string `yaml:"phone_reveal_selectors"`
	MediaHosts           []string `yaml:"media_hosts"`
	MaxImages            int      `yaml:"max_images"`
	DateFormats          []string `yaml:"date_formats"`
	StopHeadings         []string `yaml:"stop_headings"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		S3: S3Config{
			Enabled:         os.Getenv("S3_BUCKET") != "",
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			Workers: getEnvInt("SCRAPE_WORKERS", 2),
			DelayMS: getEnvInt("SCRAPE_DELAY_MS", 2000),
		},
		DBPath:   getEnv("DB_PATH", "scraper.db"),
		LogPath:  getEnv("LOG_PATH", "daemon.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Sites:    make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSiteConfigs() error {
	configDir := "config/sites"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return err
		}
		site.ApplyDefaults()

		c.Sites[site.ID] = &site
	}

	return nil
}

// ApplyDefaults fills in the known Rightmove-shaped extraction surface for
// any field the YAML leaves out, so a minimal site file still extracts.
func (s *SiteConfig) ApplyDefaults() {
	if s.Handler == "" {
		s.Handler = "browser"
	}
	if s.RateLimitMS == 0 {
		s.RateLimitMS = 2000
	}
	if s.MaxSearchPages == 0 {
		s.MaxSearchPages = 2
	}
	if s.Search.CardSelector == "" {
		s.Search.CardSelector = "div[class*='PropertyCard_propertyCardContainer']"
	}
	if s.Search.DetailLinkSelector == "" {
		s.Search.DetailLinkSelector = "a[href*='/properties/']"
	}
	if s.Search.NextPageSelector == "" {
		s.Search.NextPageSelector = ".pagination-direction--next"
	}

	e := &s.Extraction
	if e.CurrencySymbol == "" {
		e.CurrencySymbol = "£"
	}
	if e.MinPlausiblePrice == 0 {
		e.MinPlausiblePrice = 10000
	}
	if len(e.PriceSelectors) == 0 {
		e.PriceSelectors = []string{
			"span[data-testid='price']",
			"div[data-testid='price'] span",
			"span[class*='propertyCard-priceValue']",
			"p[class*='price']",
			"div[class*='price'] span",
			"article span[class*='price']",
		}
	}
	if len(e.GallerySelectors) == 0 {
		e.GallerySelectors = []string{
			"div[class*='gallery'] img",
			"div[class*='carousel'] img",
		}
	}
	if len(e.PhoneRevealSelectors) == 0 {
		e.PhoneRevealSelectors = []string{
			"button[class*='phone']",
			"a[class*='phone']",
		}
	}
	if len(e.MediaHosts) == 0 {
		e.MediaHosts = []string{"rightmove", "media", "property"}
	}
	if e.MaxImages == 0 {
		e.MaxImages = 40
	}
	if len(e.DateFormats) == 0 {
		e.DateFormats = []string{"02/01/2006", "2 January 2006", "02 Jan 2006"}
	}
	if len(e.StopHeadings) == 0 {
		e.StopHeadings = []string{
			"key features", "brochures", "council tax", "notes",
			"staying secure", "map", "nearest stations", "schools",
			"broadband", "property type", "bedrooms", "bathrooms",
			"size", "tenure", "features",
		}
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

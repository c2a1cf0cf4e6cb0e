package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		// Driver is one of postgres, sqlite or mysql.
		Driver string
		URL    string
	}
	Server struct {
		Port         int
		WriteTimeout string
	}
	Scraper struct {
		UserAgent       string
		RequestTimeout  string
		FieldTimeout    string
		Currency        string
		MaxProductPages int
		MaxHeroProducts int
		PolicyMaxChars  int
	}
	Competitor struct {
		SearchURL      string
		RequestTimeout string
		DefaultResults int
		ResultLimit    int
		MaxConcurrent  int
	}
	Logging struct {
		Dir   string
		Debug bool
	}
}

// LoadConfig reads config.yaml from the given directories (default "." and
// "./config") and applies INSIGHTS_* environment overrides, e.g.
// INSIGHTS_DATABASE_URL. A missing file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Default values
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "store_insights.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.writetimeout", "5m")
	v.SetDefault("scraper.useragent", "Mozilla/5.0 (compatible; StoreInsightsBot/1.0)")
	v.SetDefault("scraper.requesttimeout", "15s")
	v.SetDefault("scraper.fieldtimeout", "20s")
	v.SetDefault("scraper.currency", "USD")
	v.SetDefault("scraper.maxproductpages", 20)
	v.SetDefault("scraper.maxheroproducts", 10)
	v.SetDefault("scraper.policymaxchars", 2000)
	v.SetDefault("competitor.searchurl", "https://html.duckduckgo.com/html/?q=%s")
	v.SetDefault("competitor.requesttimeout", "15s")
	v.SetDefault("competitor.defaultresults", 5)
	v.SetDefault("competitor.resultlimit", 10)
	v.SetDefault("competitor.maxconcurrent", 3)
	v.SetDefault("logging.dir", "")
	v.SetDefault("logging.debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "postgres", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	if !strings.Contains(c.Competitor.SearchURL, "%s") {
		return fmt.Errorf("competitor search url %q has no %%s placeholder", c.Competitor.SearchURL)
	}
	return nil
}

func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.Scraper.RequestTimeout, 15*time.Second)
}

func (c *Config) GetFieldTimeout() time.Duration {
	return parseDuration(c.Scraper.FieldTimeout, 20*time.Second)
}

func (c *Config) GetSearchTimeout() time.Duration {
	return parseDuration(c.Competitor.RequestTimeout, 15*time.Second)
}

func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 5*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

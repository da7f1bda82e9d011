package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen       string           `yaml:"listen"`
	Eventbrite   ProviderConfig   `yaml:"eventbrite"`
	Ticketmaster ProviderConfig   `yaml:"ticketmaster"`
	Local        LocalConfig      `yaml:"local"`
	Enrichment   EnrichmentConfig `yaml:"enrichment"`
	Cache        CacheConfig      `yaml:"cache"`
	Defaults     DefaultsConfig   `yaml:"defaults"`
}

// ProviderConfig — один внешний API событий. Отсутствующий credential не
// ошибка конфигурации: провайдер просто считается недоступным.
type ProviderConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Credential string `yaml:"credential"`
	BaseURL    string `yaml:"base_url"` // override, в основном для тестов
}

type LocalConfig struct {
	Enabled bool `yaml:"enabled"`
}

type EnrichmentConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Categorize  bool   `yaml:"categorize"`
	Summarize   bool   `yaml:"summarize"`
	Concurrency int    `yaml:"concurrency"` // параллельных запросов к API
}

type CacheConfig struct {
	DatabaseURL string `yaml:"database_url"` // пусто = in-memory кэш
	TTLSeconds  int    `yaml:"ttl_seconds"`
	SweepCron   string `yaml:"sweep_cron"` // расписание purgeExpired
}

type DefaultsConfig struct {
	RadiusMiles int `yaml:"radius_miles"`
	Limit       int `yaml:"limit"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.SweepCron == "" {
		cfg.Cache.SweepCron = "@daily"
	}
	if cfg.Defaults.RadiusMiles == 0 {
		cfg.Defaults.RadiusMiles = 25
	}
	if cfg.Defaults.Limit == 0 {
		cfg.Defaults.Limit = 20
	}
	if cfg.Enrichment.BaseURL == "" {
		cfg.Enrichment.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Enrichment.Model == "" {
		cfg.Enrichment.Model = "gpt-4o-mini"
	}
	if cfg.Enrichment.Concurrency == 0 {
		cfg.Enrichment.Concurrency = 4
	}
}

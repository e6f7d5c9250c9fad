// Package config is the configuration of the covidcurve binary, read from
// config.json5 (and config.local.json5) in the working directory.
package config

import (
	"covidcurve/internal/chart"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/configutil"
	"covidcurve/internal/covid"
	"covidcurve/internal/publish"
	"covidcurve/internal/report"
	"covidcurve/internal/scrapers/koronavirus"
	"covidcurve/internal/store"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
)

type CountersConfig struct {
	Cases  []string `json:"cases"`
	Deaths []string `json:"deaths"`
}

type SourceConfig struct {
	Url               string         `json:"url"`
	NewsUrl           string         `json:"news_url"`
	TimeoutSeconds    int            `json:"timeout_seconds"`
	RequestsPerSecond float64        `json:"requests_per_second"`
	Counters          CountersConfig `json:"counters"`
	MaxNewsPages      int            `json:"max_news_pages"`
	CloudflareBypass  bool           `json:"cloudflare_bypass"`
	// DumpDir keeps a copy of every fetched page when set.
	DumpDir string `json:"dump_dir"`
}

func (c SourceConfig) ClientOptions() koronavirus.ClientOptions {
	return koronavirus.ClientOptions{
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
		DumpDir:           c.DumpDir,
	}
}

type ChartsConfig struct {
	OutputDir      string `json:"output_dir"`
	WidthPx        int    `json:"width_px"`
	HeightPx       int    `json:"height_px"`
	ThumbnailWidth int    `json:"thumbnail_width"`
	Fit            bool   `json:"fit"`
	ForecastDays   int    `json:"forecast_days"`
}

func (c ChartsConfig) Options() chart.Options {
	return chart.Options{
		WidthPx:        c.WidthPx,
		HeightPx:       c.HeightPx,
		ThumbnailWidth: c.ThumbnailWidth,
		Fit:            c.Fit,
		ForecastDays:   c.ForecastDays,
	}
}

type WaveConfig struct {
	Name string `json:"name"`
	// From and To are YYYY-MM-DD, either may be empty for an open side.
	From string `json:"from"`
	To   string `json:"to"`
}

func (w WaveConfig) Window() (covid.Window, error) {
	window := covid.Window{Name: w.Name}
	var err error
	if w.From != "" {
		window.From, err = covid.ParseDate(w.From)
		if err != nil {
			return covid.Window{}, fmt.Errorf("wave %q: from: %w", w.Name, err)
		}
	}
	if w.To != "" {
		window.To, err = covid.ParseDate(w.To)
		if err != nil {
			return covid.Window{}, fmt.Errorf("wave %q: to: %w", w.Name, err)
		}
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return covid.Window{}, fmt.Errorf("wave %q ends before it starts", w.Name)
	}
	return window, nil
}

type ReportConfig struct {
	// Readme is the README whose image links are rewritten, empty disables it.
	Readme string            `json:"readme"`
	Email  report.SmtpConfig `json:"email"`
}

type ScheduleConfig struct {
	Cron string `json:"cron"`
}

type Config struct {
	Source    SourceConfig     `json:"source"`
	Store     store.Config     `json:"store"`
	Charts    ChartsConfig     `json:"charts"`
	Waves     []WaveConfig     `json:"waves"`
	Publish   publish.Config   `json:"publish"`
	Report    ReportConfig     `json:"report"`
	Schedule  ScheduleConfig   `json:"schedule"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func Defaults() Config {
	return Config{
		Source: SourceConfig{
			Url:               "https://koronavirus.gov.hu/",
			NewsUrl:           "https://koronavirus.gov.hu/hirek",
			TimeoutSeconds:    30,
			RequestsPerSecond: 1,
			Counters: CountersConfig{
				Cases:  slices.Clone(koronavirus.DefaultCaseCounters),
				Deaths: slices.Clone(koronavirus.DefaultDeathCounters),
			},
			MaxNewsPages:     10,
			CloudflareBypass: true,
		},
		Store: store.Config{
			Driver: store.DRIVER_TABLE,
			File:   "covid_series.txt",
		},
		Charts: ChartsConfig{
			OutputDir:    ".",
			WidthPx:      1024,
			HeightPx:     768,
			ForecastDays: 7,
		},
		Waves: []WaveConfig{
			{Name: "wave1", From: "2020-03-04", To: "2020-08-31"},
			{Name: "wave2", From: "2020-09-01", To: "2021-01-31"},
			{Name: "wave3", From: "2021-02-01", To: "2021-07-31"},
			{Name: "wave4", From: "2021-08-01", To: "2022-05-31"},
		},
		Publish: publish.Config{
			Driver: publish.DRIVER_IMGUR,
		},
		Report: ReportConfig{
			Readme: "README.md",
			Email:  report.SmtpConfig{Port: 587},
		},
		Schedule: ScheduleConfig{
			Cron: "0 10 * * *",
		},
	}
}

// Read reads the config file at path over the defaults, a missing file
// leaves the defaults in place.
func Read(path string) (Config, error) {
	cfg, err := configutil.ReadConfig(path, decodeBase())
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg = fillLists(cfg)
	return cfg, cfg.Validate()
}

// Find is Read with the nearest config file named name, looked up from the
// working directory towards the root.
func Find(name string) (Config, error) {
	cfg, err := configutil.ReadRecursively(name, decodeBase())
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg = fillLists(cfg)
	return cfg, cfg.Validate()
}

// decodeBase is what config files are decoded over. json5 decodes arrays
// into the existing elements, so list defaults are left out here and
// filled in by fillLists.
func decodeBase() Config {
	cfg := Defaults()
	cfg.Waves = nil
	cfg.Source.Counters = CountersConfig{}
	return cfg
}

// fillLists restores the list defaults for the keys the files left out, an
// explicit empty list stays empty.
func fillLists(cfg Config) Config {
	defaults := Defaults()
	if cfg.Waves == nil {
		cfg.Waves = defaults.Waves
	}
	if cfg.Source.Counters.Cases == nil {
		cfg.Source.Counters.Cases = defaults.Source.Counters.Cases
	}
	if cfg.Source.Counters.Deaths == nil {
		cfg.Source.Counters.Deaths = defaults.Source.Counters.Deaths
	}
	return cfg
}

// Windows returns the configured waves.
func (c Config) Windows() ([]covid.Window, error) {
	windows := make([]covid.Window, 0, len(c.Waves))
	for _, w := range c.Waves {
		window, err := w.Window()
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Source.Url == "" {
		errs = append(errs, fmt.Errorf("source.url is required"))
	}
	if c.Source.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("source.timeout_seconds must not be negative"))
	}
	if c.Source.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("source.requests_per_second must not be negative"))
	}
	if c.Source.MaxNewsPages < 0 {
		errs = append(errs, fmt.Errorf("source.max_news_pages must not be negative"))
	}

	switch c.Store.Driver {
	case "", store.DRIVER_TABLE:
		if c.Store.File == "" {
			errs = append(errs, fmt.Errorf("store.file is required for the table driver"))
		}
	case store.DRIVER_SQLITE:
		if c.Store.File == "" && c.Store.Url == "" {
			errs = append(errs, fmt.Errorf("store.file or store.url is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	switch c.Publish.Driver {
	case "", publish.DRIVER_IMGUR, publish.DRIVER_S3, publish.DRIVER_DIRECTORY:
	default:
		errs = append(errs, fmt.Errorf("unknown publish.driver %q", c.Publish.Driver))
	}

	if c.Charts.WidthPx < 0 || c.Charts.HeightPx < 0 || c.Charts.ThumbnailWidth < 0 {
		errs = append(errs, fmt.Errorf("charts sizes must not be negative"))
	}

	seen := map[string]bool{}
	for _, w := range c.Waves {
		if w.Name == "" {
			errs = append(errs, fmt.Errorf("waves need a name"))
			continue
		}
		if seen[w.Name] {
			errs = append(errs, fmt.Errorf("wave %q is defined twice", w.Name))
		}
		seen[w.Name] = true
		if _, err := w.Window(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Schedule.Cron != "" {
		_, err := cron.ParseStandard(c.Schedule.Cron)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
		}
	}

	return errors.Join(errs...)
}

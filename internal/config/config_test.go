package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "integra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
institutions:
  IFB:
    base_url: https://ifb.example.edu
    region: DF
    name: Instituto Federal de Brasília
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Crawler.PageSize)
	require.Equal(t, 50, cfg.Crawler.MaxConcurrent)
	require.Equal(t, "integra.db", cfg.DB.RawPath)
	require.Equal(t, "datamart.db", cfg.DB.MartPath)
	require.Equal(t, 85, cfg.Courses.SimilarityThreshold)
	require.True(t, cfg.Logging.Development)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateEmptyRegistryFails(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "logging:\n  development: true\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "institutions registry is empty")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := Config{
		HTTP:    HTTPConfig{TimeoutSeconds: 30},
		Crawler: CrawlerConfig{PageSize: 50, MaxConcurrent: 50},
		DB:      DBConfig{RawPath: "integra.db", MartPath: "datamart.db"},
		Server:  ServerConfig{Port: 8080},
		Courses: CoursesConfig{SimilarityThreshold: 85},
		Institutions: map[string]Institution{
			"IFB": {BaseURL: "https://ifb.example.edu"},
		},
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.Crawler.PageSize = 0 }},
		{"zero concurrency", func(c *Config) { c.Crawler.MaxConcurrent = 0 }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"empty raw path", func(c *Config) { c.DB.RawPath = "" }},
		{"empty mart path", func(c *Config) { c.DB.MartPath = "" }},
		{"missing base url", func(c *Config) {
			c.Institutions = map[string]Institution{"IFB": {}}
		}},
		{"threshold out of range", func(c *Config) { c.Courses.SimilarityThreshold = 101 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestCodesSorted(t *testing.T) {
	t.Parallel()

	cfg := Config{Institutions: map[string]Institution{
		"IFSP": {BaseURL: "https://ifsp.example.edu"},
		"IFB":  {BaseURL: "https://ifb.example.edu"},
		"IFCE": {BaseURL: "https://ifce.example.edu"},
	}}
	require.Equal(t, []string{"IFB", "IFCE", "IFSP"}, cfg.Codes())
}

package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url     string   `json:"url"`
	Timeout int      `json:"timeout"`
	Waves   []string `json:"waves"`
	Bypass  bool     `json:"bypass"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// comments are allowed
		url: "https://example.com",
		waves: ["third"],
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		url: "http://localhost:8080",
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig(filepath.Join(dir, "config.json5"), testConfig{Timeout: 30})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.Url)
	require.Equal(t, 30, cfg.Timeout)
	require.Equal(t, []string{"third"}, cfg.Waves)
}

func TestReadConfigZeroValues(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		timeout: 0,
		bypass: false,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		url: "",
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig(filepath.Join(dir, "config.json5"), testConfig{
		Url:     "https://example.com",
		Timeout: 30,
		Waves:   []string{"first"},
		Bypass:  true,
	})
	require.NoError(t, err)
	require.Equal(t, testConfig{Waves: []string{"first"}}, cfg)
}

func TestReadRecursively(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "covidcurve.json5"), []byte(`{ timeout: 12 }`), 0600)
	require.NoError(t, err)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() {
		os.Chdir(wd)
	})

	cfg, err := ReadRecursively("covidcurve.json5", testConfig{Url: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Timeout)
	require.Equal(t, "https://example.com", cfg.Url)

	_, err = ReadRecursively("covidcurve-missing.json5", testConfig{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ReadConfig(filepath.Join(dir, "config.json5"), testConfig{Timeout: 5})
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, 5, cfg.Timeout)
}

func TestSplitExt(t *testing.T) {
	name, ext := splitExt("config.json5")
	require.Equal(t, "config", name)
	require.Equal(t, "json5", ext)

	name, ext = splitExt("Makefile")
	require.Equal(t, "Makefile", name)
	require.Equal(t, "", ext)
}

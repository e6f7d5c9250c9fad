package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/store"

	"github.com/stretchr/testify/require"
)

func statsServer(t *testing.T) *httptest.Server {
	page, err := os.ReadFile(filepath.Join("..", "..", "..", "internal", "scrapers", "koronavirus", "testdata", "stats.html"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write(page)
		case "/redesigned":
			w.Write([]byte("<html><body>no counters here</body></html>"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type cliEnv struct {
	config string
	series string
	public string
}

func writeCliConfig(t *testing.T, sourceUrl, publishDir string) cliEnv {
	dir := t.TempDir()
	env := cliEnv{
		config: filepath.Join(dir, "config.json5"),
		series: filepath.Join(dir, "covid_series.txt"),
		public: publishDir,
	}
	if env.public == "" {
		env.public = filepath.Join(dir, "public")
	}

	contents := fmt.Sprintf(`{
		source: {
			url: %q,
			cloudflare_bypass: false,
			requests_per_second: 0,
			timeout_seconds: 5,
		},
		store: { driver: "table", file: %q },
		charts: { output_dir: %q, width_px: 320, height_px: 240 },
		publish: { driver: "directory", directory: { path: %q } },
		report: { readme: "" },
	}`, sourceUrl, env.series, filepath.Join(dir, "charts"), env.public)
	require.NoError(t, os.WriteFile(env.config, []byte(contents), 0644))
	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func loadSeries(t *testing.T, path string) covid.Series {
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: store.DRIVER_TABLE, File: path}, telemetry.NewTestAPI(t))
	require.NoError(t, err)
	defer s.Close()
	series, err := s.LoadAll(ctx)
	require.NoError(t, err)
	return series
}

func TestRunCommand(t *testing.T) {
	server := statsServer(t)
	env := writeCliConfig(t, server.URL+"/", "")

	stdout, err := execute(t, "--config", env.config, "run")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "file://"), lines[0])
	require.True(t, strings.HasSuffix(lines[0], "/plot.png"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], "/plot-deaths.png"), lines[1])
	require.FileExists(t, filepath.Join(env.public, "plot.png"))
	require.FileExists(t, filepath.Join(env.public, "plot-deaths.png"))

	series := loadSeries(t, env.series)
	require.Len(t, series, 1)
	require.Equal(t, int64(115842+248052), series[0].Cases)
	require.Equal(t, int64(3011+8990), series[0].Deaths)

	stdout, err = execute(t, "--config", env.config, "show", "--metric", "deaths")
	require.NoError(t, err)
	require.Contains(t, stdout, series[0].Date.Format(covid.DateLayout))
	require.Contains(t, stdout, "12001")
	require.NotContains(t, stdout, "363894")

	_, err = execute(t, "--config", env.config, "show", "--metric", "recovered")
	require.ErrorContains(t, err, "unknown metric")
}

func TestRunCommandFailures(t *testing.T) {
	server := statsServer(t)

	notADirectory := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.WriteFile(notADirectory, []byte("file"), 0644))

	cases := []struct {
		name       string
		path       string
		publishDir string
		expected   error
	}{
		{name: "fetcher", path: "/down", expected: covid.ErrNetwork},
		{name: "extractor", path: "/redesigned", expected: covid.ErrParse},
		{name: "publisher", path: "/", publishDir: notADirectory, expected: covid.ErrUpload},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			env := writeCliConfig(t, server.URL+test.path, test.publishDir)

			stdout, err := execute(t, "--config", env.config, "run")
			require.ErrorIs(t, err, test.expected)
			require.Empty(t, stdout)
			require.Empty(t, loadSeries(t, env.series))
		})
	}
}

package commands

import (
	"testing"
	"time"

	"covidcurve/internal/config"
	"covidcurve/internal/pipeline"

	"github.com/stretchr/testify/require"
)

func TestPipelineOptions(t *testing.T) {
	opts, err := pipelineOptions(config.Defaults(), []string{"WAVE2", "wave4"})
	require.NoError(t, err)
	require.Equal(t, pipeline.SOURCE_COUNTERS, opts.Source)
	require.Equal(t, "https://koronavirus.gov.hu/", opts.SourceUrl)
	require.Len(t, opts.Windows, 2)
	require.Equal(t, "wave2", opts.Windows[0].Name)
	require.Equal(t, time.Date(2022, 5, 31, 0, 0, 0, 0, time.UTC), opts.Windows[1].To)

	_, err = pipelineOptions(config.Defaults(), []string{"wave9"})
	require.ErrorContains(t, err, "unknown wave")
}

func TestParseRange(t *testing.T) {
	window, err := parseRange("2021-03-01", "")
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), window.From)
	require.True(t, window.To.IsZero())
	require.Equal(t, "2021-03-01_open", window.Slug())

	_, err = parseRange("2021-03-01", "2021-02-01")
	require.Error(t, err)

	_, err = parseRange("march", "")
	require.Error(t, err)
}

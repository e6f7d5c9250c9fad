package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := NewTestAPI(t)
	scoped := NewScopedAPI("koronavirus", inner)

	scoped.ReportBroken("client.fetch", "boom")
	scoped.ReportWarning("series.merge")
	scoped.ReportCount("store.rows", 3)

	broken := inner.Reports("broken", "")
	require.Len(t, broken, 1)
	require.Equal(t, "koronavirus: client.fetch", broken[0].ID)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	require.Len(t, inner.Reports("warning", "series.merge"), 1)
	require.Len(t, inner.Reports("count", "store.rows"), 1)
	require.Empty(t, inner.Reports("debug", ""))
}

func TestGaugeName(t *testing.T) {
	require.Equal(t, "pipeline__store.rows", gaugeName("pipeline: store.rows"))
	require.Equal(t, "perf.cpu-usage", gaugeName("perf.cpu-usage"))
}

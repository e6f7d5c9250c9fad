package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := covid.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func obs(d string, cases, deaths int64) covid.Observation {
	return covid.Observation{Date: date(d), Cases: cases, Deaths: deaths}
}

func openStores(t *testing.T, tel telemetry.API) map[string]Store {
	dir := t.TempDir()
	ctx := context.Background()

	table, err := Open(ctx, Config{File: filepath.Join(dir, "series.txt")}, tel)
	require.NoError(t, err)

	sqlite, err := Open(ctx, Config{
		Driver: DRIVER_SQLITE,
		File:   filepath.Join(dir, "series.db"),
	}, tel)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlite.Close()
	})

	return map[string]Store{
		DRIVER_TABLE:  table,
		DRIVER_SQLITE: sqlite,
	}
}

func TestRoundTrip(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	for name, store := range openStores(t, tel) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()

			empty, err := store.LoadAll(ctx)
			require.NoError(t, err)
			require.Len(t, empty, 0)

			// deliberately out of order
			err = store.Append(ctx,
				obs("2021-01-02", 120, 6),
				obs("2021-01-01", 100, 5),
			)
			require.NoError(t, err)
			err = store.Append(ctx, obs("2021-01-03", 150, 9))
			require.NoError(t, err)

			series, err := store.LoadAll(ctx)
			require.NoError(t, err)
			diff := cmp.Diff(covid.Series{
				obs("2021-01-01", 100, 5),
				obs("2021-01-02", 120, 6),
				obs("2021-01-03", 150, 9),
			}, series)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestAppendIdempotent(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	for name, store := range openStores(t, tel) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, obs("2021-01-01", 100, 5)))
			require.NoError(t, store.Append(ctx, obs("2021-01-01", 100, 5)))

			series, err := store.LoadAll(ctx)
			require.NoError(t, err)
			require.Len(t, series, 1)
		})
	}
}

func TestAppendAnomaly(t *testing.T) {
	for name, store := range openStores(t, telemetry.NewTestAPI(t)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tel := telemetry.NewTestAPI(t)
			switch s := store.(type) {
			case TableStore:
				s.tel = tel
				store = s
			case SQLStore:
				s.tel = tel
				store = s
			}

			require.NoError(t, store.Append(ctx, obs("2021-01-01", 100, 5)))

			err := store.Append(ctx,
				obs("2021-01-02", 120, 6),
				obs("2021-01-01", 90, 5),
			)
			require.ErrorIs(t, err, covid.ErrDataAnomaly)
			require.Len(t, tel.Reports("warning", report_store_append), 1)

			// nothing from the rejected batch was written
			series, err := store.LoadAll(ctx)
			require.NoError(t, err)
			require.Equal(t, covid.Series{obs("2021-01-01", 100, 5)}, series)
		})
	}
}

func TestAppendOverwritesGreater(t *testing.T) {
	for name, store := range openStores(t, telemetry.NewTestAPI(t)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, obs("2021-01-01", 100, 5)))
			require.NoError(t, store.Append(ctx, obs("2021-01-01", 104, 5)))

			series, err := store.LoadAll(ctx)
			require.NoError(t, err)
			require.Equal(t, covid.Series{obs("2021-01-01", 104, 5)}, series)
		})
	}
}

func TestAppendReportsRows(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	for name, store := range openStores(t, tel) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Append(ctx,
				obs("2021-01-01", 100, 5),
				obs("2021-01-02", 120, 6),
			))
			require.NoError(t, store.Append(ctx, obs("2021-01-03", 150, 9)))
		})
	}

	counts := tel.Reports("count", report_store_rows)
	require.Len(t, counts, 4)
	for i, c := range counts {
		expected := int64(2)
		if i%2 == 1 {
			expected = 3
		}
		require.Equal(t, []any{expected}, c.Params)
	}
}

func TestTableFormat(t *testing.T) {
	var out strings.Builder
	err := WriteTable(&out, covid.Series{
		obs("2021-01-01", 100, 5),
		obs("2021-01-02", 120, 6),
	})
	require.NoError(t, err)
	require.Equal(t, tableHeader+"\n2021-01-01 100 5\n2021-01-02 120 6\n", out.String())

	series, err := ReadTable(strings.NewReader(out.String() + "\n\n"))
	require.NoError(t, err)
	require.Len(t, series, 2)
}

func TestReadTableErrors(t *testing.T) {
	inputs := []string{
		"2021-01-01 100\n",
		"2021-13-01 100 5\n",
		"2021-01-01 many 5\n",
		"2021-01-02 100 5\n2021-01-01 90 4\n",
	}
	for _, input := range inputs {
		_, err := ReadTable(strings.NewReader(input))
		require.Error(t, err, input)
	}
}

func TestTableStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewTableStore(filepath.Join(dir, "series.txt"), telemetry.NewTestAPI(t))

	require.NoError(t, store.Append(context.Background(), obs("2021-01-01", 1, 0)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "series.txt", entries[0].Name())
}

func TestReadLegacy(t *testing.T) {
	dir := t.TempDir()
	casesPath := filepath.Join(dir, "covid_data.txt")
	deathsPath := filepath.Join(dir, "covid_deaths.txt")

	err := os.WriteFile(casesPath, []byte(
		"2020-03-04 2 +2\n2020-03-05 2 +0\n\n2020-03-06 4 +2\n2020-03-07 7 +3",
	), 0600)
	require.NoError(t, err)
	err = os.WriteFile(deathsPath, []byte(
		"2020-03-05 0 +0\n2020-03-06 0 +0\n2020-03-07 1 +1\n",
	), 0600)
	require.NoError(t, err)

	series, err := ReadLegacy(casesPath, deathsPath)
	require.NoError(t, err)
	require.Equal(t, covid.Series{
		obs("2020-03-05", 2, 0),
		obs("2020-03-06", 4, 0),
		obs("2020-03-07", 7, 1),
	}, series)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "csv"}, telemetry.NewTestAPI(t))
	require.Error(t, err)
}

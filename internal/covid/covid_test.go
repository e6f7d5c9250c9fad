package covid

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func obs(d string, cases, deaths int64) Observation {
	return Observation{Date: date(d), Cases: cases, Deaths: deaths}
}

func TestMerge(t *testing.T) {
	base := Series{
		obs("2021-01-01", 100, 5),
		obs("2021-01-03", 140, 8),
	}

	testCases := []struct {
		name     string
		incoming Observation
		expected Series
		changed  bool
		anomaly  bool
	}{
		{
			name:     "append at end",
			incoming: obs("2021-01-04", 150, 9),
			expected: Series{obs("2021-01-01", 100, 5), obs("2021-01-03", 140, 8), obs("2021-01-04", 150, 9)},
			changed:  true,
		},
		{
			name:     "insert in the middle",
			incoming: obs("2021-01-02", 120, 6),
			expected: Series{obs("2021-01-01", 100, 5), obs("2021-01-02", 120, 6), obs("2021-01-03", 140, 8)},
			changed:  true,
		},
		{
			name:     "identical is idempotent",
			incoming: obs("2021-01-03", 140, 8),
			expected: base,
		},
		{
			name:     "greater overwrites",
			incoming: obs("2021-01-03", 141, 8),
			expected: Series{obs("2021-01-01", 100, 5), obs("2021-01-03", 141, 8)},
			changed:  true,
		},
		{
			name:     "lower on same date",
			incoming: obs("2021-01-03", 139, 8),
			expected: base,
			anomaly:  true,
		},
		{
			name:     "lower than previous day",
			incoming: obs("2021-01-04", 130, 9),
			expected: base,
			anomaly:  true,
		},
		{
			name:     "higher than next day",
			incoming: obs("2021-01-02", 150, 6),
			expected: base,
			anomaly:  true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			out, changed, err := base.Merge(test.incoming)
			if test.anomaly {
				require.ErrorIs(t, err, ErrDataAnomaly)
				var anomaly *AnomalyError
				require.True(t, errors.As(err, &anomaly))
				require.Equal(t, test.incoming, anomaly.Incoming)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, test.changed, changed)
			if diff := cmp.Diff(test.expected, out); diff != "" {
				t.Fatal(diff)
			}
		})
	}

	// the receiver is never mutated
	require.Len(t, base, 2)
	require.Equal(t, int64(140), base[1].Cases)
}

func TestMergeNormalizesDate(t *testing.T) {
	budapest, err := time.LoadLocation("Europe/Budapest")
	require.NoError(t, err)

	var s Series
	s, changed, err := s.Merge(Observation{
		Date:  time.Date(2021, 1, 2, 0, 30, 0, 0, budapest),
		Cases: 10,
	})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, date("2021-01-02"), s[0].Date)
}

func TestMergeNegative(t *testing.T) {
	_, _, err := Series{}.Merge(obs("2021-01-01", -1, 0))
	require.ErrorIs(t, err, ErrDataAnomaly)
}

func TestWindow(t *testing.T) {
	s := Series{
		obs("2021-01-01", 1, 0),
		obs("2021-02-01", 2, 0),
		obs("2021-03-01", 3, 0),
	}

	require.Len(t, s.Window(Window{}), 3)

	third := Window{Name: "Third", From: date("2021-02-01"), To: date("2021-02-28")}
	require.Equal(t, Series{obs("2021-02-01", 2, 0)}, s.Window(third))
	require.Equal(t, "third", third.Slug())

	open := Window{From: date("2021-02-01")}
	require.Len(t, s.Window(open), 2)
	require.Equal(t, "2021-02-01_open", open.Slug())
}

func TestFindWindow(t *testing.T) {
	windows := []Window{{Name: "first"}, {Name: "third"}}

	w, err := FindWindow(windows, "THIRD")
	require.NoError(t, err)
	require.Equal(t, "third", w.Name)

	_, err = FindWindow(windows, "fifth")
	require.ErrorContains(t, err, "first, third")
}

func TestValues(t *testing.T) {
	s := Series{obs("2021-01-01", 100, 5), obs("2021-01-02", 120, 6)}
	dates, values := s.Values(METRIC_DEATHS)
	require.Equal(t, []time.Time{date("2021-01-01"), date("2021-01-02")}, dates)
	require.Equal(t, []int64{5, 6}, values)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" Deaths")
	require.NoError(t, err)
	require.Equal(t, METRIC_DEATHS, m)

	_, err = ParseMetric("recovered")
	require.Error(t, err)
}

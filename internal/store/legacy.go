package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"covidcurve/internal/covid"
)

// ReadLegacy reads the older two file layout, where cumulative cases and
// deaths live in separate files with `DATE TOTAL +DELTA` rows. Dates present
// in only one of the files are dropped, a date repeated within a file keeps
// its last total.
func ReadLegacy(casesPath, deathsPath string) (covid.Series, error) {
	cases, err := readLegacyFile(casesPath)
	if err != nil {
		return nil, err
	}
	deaths, err := readLegacyFile(deathsPath)
	if err != nil {
		return nil, err
	}

	var series covid.Series
	for date, c := range cases {
		d, ok := deaths[date]
		if !ok {
			continue
		}
		series = append(series, covid.Observation{
			Date:   date,
			Cases:  c,
			Deaths: d,
		})
	}
	slices.SortFunc(series, func(a, b covid.Observation) int {
		return a.Date.Compare(b.Date)
	})
	return series, nil
}

func readLegacyFile(path string) (map[time.Time]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	totals, err := parseLegacy(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return totals, nil
}

func parseLegacy(r io.Reader) (map[time.Time]int64, error) {
	totals := map[time.Time]int64{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		// the old files carry blank lines between appends
		if len(fields) < 2 {
			continue
		}
		date, err := covid.ParseDate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		total, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		totals[date] = total
	}
	return totals, scanner.Err()
}

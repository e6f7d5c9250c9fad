package store

import (
	"bufio"
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const tableHeader = "# date cumulative_cases cumulative_deaths"

// TableStore keeps the series in a whitespace separated text file with one
// row per date.
type TableStore struct {
	path string
	tel  telemetry.API
}

func NewTableStore(path string, tel telemetry.API) TableStore {
	return TableStore{path: path, tel: tel}
}

func (s TableStore) LoadAll(ctx context.Context) (covid.Series, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_store_load, err, s.path)
		return nil, err
	}
	defer f.Close()

	series, err := ReadTable(f)
	if err != nil {
		s.tel.ReportBroken(report_store_load, err, s.path)
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return series, nil
}

func (s TableStore) Append(ctx context.Context, observations ...covid.Observation) error {
	series, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	series, changed, err := mergeAll(s.tel, series, observations)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	err = s.write(series)
	if err != nil {
		s.tel.ReportBroken(report_store_append, err, s.path)
		return err
	}
	s.tel.ReportCount(report_store_rows, int64(len(series)))
	return nil
}

// write replaces the table atomically through a temporary file in the same directory.
func (s TableStore) write(series covid.Series) error {
	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = WriteTable(tmp, series)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s TableStore) Close() error {
	return nil
}

// ReadTable parses a series table, blank lines and lines starting with #
// are ignored. Rows must be in ascending date order.
func ReadTable(r io.Reader) (covid.Series, error) {
	var series covid.Series

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", lineNo, len(fields))
		}
		date, err := covid.ParseDate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cases, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: cases: %w", lineNo, err)
		}
		deaths, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: deaths: %w", lineNo, err)
		}

		if last, ok := series.Last(); ok && !date.After(last.Date) {
			return nil, fmt.Errorf("line %d: %s is not after %s", lineNo, fields[0], last.Date.Format(covid.DateLayout))
		}
		series = append(series, covid.Observation{Date: date, Cases: cases, Deaths: deaths})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

func WriteTable(w io.Writer, series covid.Series) error {
	buf := bufio.NewWriter(w)
	fmt.Fprintln(buf, tableHeader)
	for _, o := range series {
		fmt.Fprintf(buf, "%s %d %d\n", o.Date.Format(covid.DateLayout), o.Cases, o.Deaths)
	}
	return buf.Flush()
}

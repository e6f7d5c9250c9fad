package store

import (
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
)

const (
	report_store_load   = "store.load"
	report_store_append = "store.append"
	report_store_rows   = "store.rows"
)

// Store is the persisted series of observations.
type Store interface {
	// LoadAll returns every observation ordered by date.
	LoadAll(ctx context.Context) (covid.Series, error)
	// Append merges the observations with covid.Series.Merge semantics. When
	// any observation is rejected nothing is written.
	Append(ctx context.Context, observations ...covid.Observation) error
	Close() error
}

const (
	DRIVER_TABLE  = "table"
	DRIVER_SQLITE = "sqlite"
)

type Config struct {
	// Driver is one of "table" (default) or "sqlite".
	Driver string `json:"driver"`
	// File is the table file or local sqlite database.
	File string `json:"file"`
	// Url is a remote libsql database, takes precedence over File for the sqlite driver.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// Open opens the store selected by the config.
func Open(ctx context.Context, config Config, tel telemetry.API) (Store, error) {
	tel = telemetry.NewScopedAPI("store", tel)

	switch config.Driver {
	case "", DRIVER_TABLE:
		if config.File == "" {
			return nil, fmt.Errorf("store: table driver needs a file")
		}
		return NewTableStore(config.File, tel), nil
	case DRIVER_SQLITE:
		return OpenSQLStore(ctx, config, tel)
	}
	return nil, fmt.Errorf("store: unknown driver %q", config.Driver)
}

// mergeAll applies every observation to the series, reporting anomalies as
// warnings. It returns the merged series and whether anything changed.
func mergeAll(tel telemetry.API, series covid.Series, observations []covid.Observation) (covid.Series, bool, error) {
	anyChanged := false
	for _, o := range observations {
		merged, changed, err := series.Merge(o)
		if err != nil {
			tel.ReportWarning(report_store_append, err)
			return series, false, err
		}
		series = merged
		anyChanged = anyChanged || changed
	}
	return series, anyChanged, nil
}

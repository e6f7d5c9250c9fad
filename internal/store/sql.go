package store

import (
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/store/db"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLStore keeps the series in a sqlite compatible database.
type SQLStore struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API
}

// OpenSQLStore opens a local sqlite file, or a remote libsql database when
// config.Url is set, and ensures the schema exists.
func OpenSQLStore(ctx context.Context, config Config, tel telemetry.API) (SQLStore, error) {
	database, err := openDB(config)
	if err != nil {
		return SQLStore{}, err
	}
	store, err := NewSQLStore(ctx, database, tel)
	if err != nil {
		database.Close()
		return SQLStore{}, err
	}
	return store, nil
}

func openDB(config Config) (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("store: sqlite driver needs a file or url")
		}
		return sql.Open("sqlite", config.File)
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	return sql.Open("libsql", config.Url+"?"+values.Encode())
}

// NewSQLStore wraps an open database, creating the schema if needed.
func NewSQLStore(ctx context.Context, database *sql.DB, tel telemetry.API) (SQLStore, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("create schema: %w", err)
	}
	return SQLStore{
		db:     database,
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    tel,
	}, nil
}

func fromRows(rows []db.Observation) (covid.Series, error) {
	series := make(covid.Series, 0, len(rows))
	for _, r := range rows {
		date, err := covid.ParseDate(r.Date)
		if err != nil {
			return nil, err
		}
		series = append(series, covid.Observation{
			Date:   date,
			Cases:  r.Cases,
			Deaths: r.Deaths,
		})
	}
	return series, nil
}

func (s SQLStore) LoadAll(ctx context.Context) (covid.Series, error) {
	rows, err := s.qry.GetAllObservations(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_load, err)
		return nil, err
	}
	return fromRows(rows)
}

func (s SQLStore) Append(ctx context.Context, observations ...covid.Observation) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_append, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	rows, err := tx.GetAllObservations(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_append, err, "GetAllObservations")
		return err
	}
	series, err := fromRows(rows)
	if err != nil {
		return err
	}

	merged, changed, err := mergeAll(s.tel, series, observations)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	for _, o := range observations {
		idx, _ := merged.Find(o.Date)
		stored := merged[idx]
		err = tx.UpsertObservation(ctx, db.UpsertObservationParams{
			Date:   stored.Date.Format(covid.DateLayout),
			Cases:  stored.Cases,
			Deaths: stored.Deaths,
		})
		if err != nil {
			s.tel.ReportBroken(report_store_append, err, "UpsertObservation")
			return err
		}
	}

	count, err := tx.CountObservations(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_append, err, "CountObservations")
		return err
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_store_append, fmt.Errorf("commit: %w", err))
		return err
	}
	s.tel.ReportCount(report_store_rows, count)
	return nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}

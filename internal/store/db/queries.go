package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Observation struct {
	Date   string
	Cases  int64
	Deaths int64
}

const getAllObservations = `select date, cases, deaths from observations order by date asc`

func (q *Queries) GetAllObservations(ctx context.Context) ([]Observation, error) {
	rows, err := q.db.QueryContext(ctx, getAllObservations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Observation
	for rows.Next() {
		var i Observation
		if err := rows.Scan(&i.Date, &i.Cases, &i.Deaths); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertObservation = `insert into observations (date, cases, deaths) values (?, ?, ?)
on conflict (date) do update set cases = excluded.cases, deaths = excluded.deaths`

type UpsertObservationParams struct {
	Date   string
	Cases  int64
	Deaths int64
}

func (q *Queries) UpsertObservation(ctx context.Context, arg UpsertObservationParams) error {
	_, err := q.db.ExecContext(ctx, upsertObservation, arg.Date, arg.Cases, arg.Deaths)
	return err
}

const countObservations = `select count(*) from observations`

func (q *Queries) CountObservations(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countObservations)
	var count int64
	err := row.Scan(&count)
	return count, err
}

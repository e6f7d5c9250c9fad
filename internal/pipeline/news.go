package pipeline

import (
	"context"
	"covidcurve/internal/covid"
	"covidcurve/internal/scrapers/koronavirus"
	"fmt"
	"slices"
)

const (
	SOURCE_COUNTERS = "counters"
	SOURCE_NEWS     = "news"
)

const defaultMaxNewsPages = 10

// acquireNews pages back through the news feed until it reaches the last
// stored date, then turns the daily increments into cumulative observations
// starting from the last stored totals.
func (p Pipeline) acquireNews(ctx context.Context, opts Options, stored covid.Series) ([]covid.Observation, error) {
	last, ok := stored.Last()
	if !ok {
		return nil, fmt.Errorf("%w: the news source needs a stored observation to count from", covid.ErrDataInsufficient)
	}
	if !covid.Day(p.deps.Clock.Today()).After(last.Date) {
		p.tel.ReportDebug("already have today's data", last.Date.Format(covid.DateLayout))
		return nil, nil
	}

	maxPages := opts.MaxNewsPages
	if maxPages <= 0 {
		maxPages = defaultMaxNewsPages
	}

	var reports []koronavirus.DailyReport
	reached := false
	for page := 0; page < maxPages && !reached; page++ {
		link, err := koronavirus.NewsPageURL(opts.NewsUrl, page)
		if err != nil {
			return nil, err
		}
		body, err := p.deps.Fetcher.Fetch(ctx, link)
		if err != nil {
			return nil, err
		}
		parsed, err := koronavirus.ParseNewsPage(body)
		if err != nil {
			return nil, err
		}
		for _, r := range parsed {
			if !r.Date.After(last.Date) {
				reached = true
				break
			}
			reports = append(reports, r)
		}
	}
	if !reached {
		return nil, fmt.Errorf(
			"%w: could not page back to %s within %d news pages",
			covid.ErrDataInsufficient, last.Date.Format(covid.DateLayout), maxPages,
		)
	}

	return Backfill(last, reports), nil
}

// Backfill accumulates daily reports on top of an observation. Reports are
// applied in date order, a date reported more than once counts only once.
func Backfill(from covid.Observation, reports []koronavirus.DailyReport) []covid.Observation {
	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b koronavirus.DailyReport) int {
		return a.Date.Compare(b.Date)
	})

	var out []covid.Observation
	current := from
	for _, r := range sorted {
		date := covid.Day(r.Date)
		if !date.After(current.Date) {
			continue
		}
		current = covid.Observation{
			Date:   date,
			Cases:  current.Cases + r.NewCases,
			Deaths: current.Deaths + r.NewDeaths,
		}
		out = append(out, current)
	}
	return out
}

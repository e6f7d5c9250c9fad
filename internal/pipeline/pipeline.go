package pipeline

import (
	"context"
	"covidcurve/internal/chart"
	"covidcurve/internal/components/assert"
	"covidcurve/internal/components/chrono"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/publish"
	"covidcurve/internal/report"
	"covidcurve/internal/scrapers/koronavirus"
	"covidcurve/internal/store"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	report_pipeline_acquire = "pipeline.acquire"
	report_pipeline_merge   = "pipeline.merge"
	report_pipeline_render  = "pipeline.render"
	report_pipeline_publish = "pipeline.publish"
	report_pipeline_commit  = "pipeline.commit"
	report_pipeline_report  = "pipeline.report"
	report_pipeline_added   = "pipeline.added"
)

type Renderer interface {
	Render(series covid.Series, metric covid.Metric, window covid.Window) (chart.Chart, error)
}

type Notifier interface {
	Notify(series covid.Series, charts []report.PublishedChart) error
}

// Deps are the collaborators of a run.
type Deps struct {
	Fetcher   koronavirus.Fetcher
	Extractor koronavirus.Extractor
	Store     store.Store
	Renderer  Renderer
	Publisher publish.Publisher
	Clock     chrono.API
	Tel       telemetry.API
	// Notifier is optional.
	Notifier Notifier
	// Stdout receives the published URLs one per line, Stderr the summary.
	Stdout io.Writer
	Stderr io.Writer
}

type Options struct {
	// Source is "counters" (default) or "news".
	Source       string
	SourceUrl    string
	NewsUrl      string
	MaxNewsPages int
	// Windows are rendered in addition to the full range.
	Windows   []covid.Window
	OutputDir string
	NoUpload  bool
	// Readme is rewritten with the new links when set.
	Readme string
}

type Result struct {
	Series covid.Series
	// Added are the observations that changed the series.
	Added  []covid.Observation
	Charts []report.PublishedChart
}

type Pipeline struct {
	deps Deps
	tel  telemetry.API
}

func New(deps Deps) Pipeline {
	assert.NotNil(deps.Fetcher)
	assert.NotNil(deps.Extractor)
	assert.NotNil(deps.Store)
	assert.NotNil(deps.Renderer)
	assert.NotNil(deps.Publisher)
	assert.NotNil(deps.Clock)
	assert.NotNil(deps.Tel)

	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	return Pipeline{
		deps: deps,
		tel:  telemetry.NewScopedAPI("pipeline", deps.Tel),
	}
}

// Run scrapes the latest counts, renders and publishes the charts and only
// then commits the new observations, a failing step leaves the store as it
// was.
func (p Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	stored, err := p.deps.Store.LoadAll(ctx)
	if err != nil {
		return Result{}, err
	}

	incoming, err := p.acquire(ctx, opts, stored)
	if err != nil {
		p.tel.ReportBroken(report_pipeline_acquire, err)
		return Result{}, err
	}

	series := stored
	var added []covid.Observation
	for _, o := range incoming {
		merged, changed, err := series.Merge(o)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_merge, err)
			return Result{}, err
		}
		series = merged
		if changed {
			added = append(added, o)
		}
	}
	p.tel.ReportCount(report_pipeline_added, int64(len(added)))

	charts, err := p.render(series, opts)
	if err != nil {
		return Result{}, err
	}

	if !opts.NoUpload {
		err = p.publish(ctx, charts)
		if err != nil {
			return Result{}, err
		}
	}

	if len(added) > 0 {
		err = p.deps.Store.Append(ctx, added...)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_commit, err)
			return Result{}, err
		}
	}

	result := Result{
		Series: series,
		Added:  added,
		Charts: charts,
	}
	p.report(opts, result)
	return result, nil
}

func (p Pipeline) acquire(ctx context.Context, opts Options, stored covid.Series) ([]covid.Observation, error) {
	switch opts.Source {
	case "", SOURCE_COUNTERS:
		return p.acquireCounters(ctx, opts)
	case SOURCE_NEWS:
		return p.acquireNews(ctx, opts, stored)
	}
	return nil, fmt.Errorf("unknown source %q", opts.Source)
}

func (p Pipeline) acquireCounters(ctx context.Context, opts Options) ([]covid.Observation, error) {
	page, err := p.deps.Fetcher.Fetch(ctx, opts.SourceUrl)
	if err != nil {
		return nil, err
	}
	totals, err := p.deps.Extractor.Extract(page)
	if err != nil {
		return nil, err
	}
	return []covid.Observation{covid.NewObservation(p.deps.Clock.Today(), totals)}, nil
}

// render draws both metrics for the full range and every window, writing
// the images to the output directory.
func (p Pipeline) render(series covid.Series, opts Options) ([]report.PublishedChart, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return nil, err
	}

	windows := append([]covid.Window{{}}, opts.Windows...)
	var charts []report.PublishedChart
	for _, window := range windows {
		for _, metric := range []covid.Metric{covid.METRIC_CASES, covid.METRIC_DEATHS} {
			c, err := p.deps.Renderer.Render(series, metric, window)
			if err != nil {
				p.tel.ReportBroken(report_pipeline_render, err, metric.String(), window.String())
				return nil, err
			}

			path := filepath.Join(outputDir, c.FileName())
			err = os.WriteFile(path, c.PNG, 0644)
			if err != nil {
				p.tel.ReportBroken(report_pipeline_render, err, path)
				return nil, err
			}
			if len(c.Thumbnail) > 0 {
				thumbPath := filepath.Join(outputDir, c.ThumbnailFileName())
				err = os.WriteFile(thumbPath, c.Thumbnail, 0644)
				if err != nil {
					p.tel.ReportBroken(report_pipeline_render, err, thumbPath)
					return nil, err
				}
			}
			p.tel.ReportDebug("rendered chart", path)

			charts = append(charts, report.PublishedChart{Chart: c, Path: path})
		}
	}
	return charts, nil
}

func (p Pipeline) publish(ctx context.Context, charts []report.PublishedChart) error {
	for i := range charts {
		link, err := p.deps.Publisher.Publish(ctx, charts[i].Chart.FileName(), charts[i].Chart.PNG)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_publish, err, charts[i].Chart.FileName())
			return err
		}
		charts[i].URL = link
	}
	return nil
}

// report prints the links and updates the README, failures here are
// reported but do not fail the run since the data is already committed.
func (p Pipeline) report(opts Options, result Result) {
	var links []report.Link
	for _, c := range result.Charts {
		if c.URL == "" {
			fmt.Fprintln(p.deps.Stdout, c.Path)
			continue
		}
		fmt.Fprintln(p.deps.Stdout, c.URL)
		links = append(links, report.Link{Alt: c.Chart.AltText(), URL: c.URL})
	}

	if opts.Readme != "" && len(links) > 0 {
		err := report.UpdateReadme(opts.Readme, links)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_report, err, opts.Readme)
		}
	}

	report.Summary(p.deps.Stderr, result.Series, result.Charts)

	if p.deps.Notifier != nil {
		err := p.deps.Notifier.Notify(result.Series, result.Charts)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_report, err)
		}
	}
}

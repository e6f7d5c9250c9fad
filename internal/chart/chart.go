package chart

import (
	"bytes"
	"covidcurve/internal/components/assert"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/fit"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	report_chart_fit    = "chart.fit"
	report_chart_render = "chart.render"
)

const dpi = 96

// Options control the rendered images.
type Options struct {
	WidthPx  int
	HeightPx int
	// ThumbnailWidth, when non-zero, also produces a downscaled copy of the
	// chart with this width.
	ThumbnailWidth int
	// Fit overlays the fitted logistic and exponential models.
	Fit bool
	// ForecastDays is how far past the last point the models are drawn.
	ForecastDays int
}

func DefaultOptions() Options {
	return Options{
		WidthPx:      1024,
		HeightPx:     768,
		ForecastDays: 7,
	}
}

// Chart is a rendered chart of one metric of a series.
type Chart struct {
	Metric covid.Metric
	Window covid.Window
	Title  string
	// Points are the plotted values, x is the unix time of the date at
	// midnight UTC and y the raw cumulative count.
	Points    plotter.XYs
	PNG       []byte
	Thumbnail []byte

	// fitted models, nil when fitting was disabled or failed
	Exponential *fit.Exponential
	Logistic    *fit.Logistic
}

// FileName is plot.png, plot-deaths.png, plot-<wave>.png or plot-deaths-<wave>.png.
func FileName(metric covid.Metric, window covid.Window) string {
	name := "plot"
	if metric == covid.METRIC_DEATHS {
		name += "-deaths"
	}
	if slug := window.Slug(); slug != "" {
		name += "-" + slug
	}
	return name + ".png"
}

func (c Chart) FileName() string {
	return FileName(c.Metric, c.Window)
}

func (c Chart) ThumbnailFileName() string {
	return strings.TrimSuffix(c.FileName(), ".png") + "-thumb.png"
}

// AltText is the alt text the chart is linked with in the README.
func (c Chart) AltText() string {
	parts := []string{"Covid curve"}
	if c.Metric == covid.METRIC_DEATHS {
		parts = append(parts, "deaths")
	}
	if !c.Window.IsZero() {
		name := c.Window.Name
		if name == "" {
			name = c.Window.Slug()
		}
		parts = append(parts, name)
	}
	return strings.Join(append(parts, "image"), " ")
}

// Points returns the chart points of a metric within the window.
func Points(series covid.Series, metric covid.Metric, window covid.Window) plotter.XYs {
	dates, values := series.Window(window).Values(metric)
	points := make(plotter.XYs, len(dates))
	for i := range dates {
		points[i].X = float64(covid.Day(dates[i]).Unix())
		points[i].Y = float64(values[i])
	}
	return points
}

type Renderer struct {
	opts Options
	tel  telemetry.API
}

func NewRenderer(opts Options, tel telemetry.API) Renderer {
	assert.NotNil(tel)
	defaults := DefaultOptions()
	if opts.WidthPx <= 0 {
		opts.WidthPx = defaults.WidthPx
	}
	if opts.HeightPx <= 0 {
		opts.HeightPx = defaults.HeightPx
	}
	if opts.ForecastDays < 0 {
		opts.ForecastDays = 0
	}
	return Renderer{
		opts: opts,
		tel:  telemetry.NewScopedAPI("chart", tel),
	}
}

func title(metric covid.Metric, window covid.Window, last covid.Observation) string {
	text := fmt.Sprintf("COVID-19 Hungary - total %s", metric)
	if !window.IsZero() {
		text += ", " + window.String()
	}
	return fmt.Sprintf("%s %s", text, last.Date.Format(covid.DateLayout))
}

// Render draws the metric of the observations within the window. A window
// without observations fails with covid.ErrDataInsufficient, a single
// observation is drawn as a lone marker.
func (r Renderer) Render(series covid.Series, metric covid.Metric, window covid.Window) (Chart, error) {
	windowed := series.Window(window)
	if len(windowed) == 0 {
		return Chart{}, fmt.Errorf(
			"%w: no %s observations in %s",
			covid.ErrDataInsufficient, metric, window,
		)
	}
	last, _ := windowed.Last()

	chart := Chart{
		Metric: metric,
		Window: window,
		Title:  title(metric, window, last),
		Points: Points(windowed, metric, covid.Window{}),
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = fmt.Sprintf("Total %s", metric)
	p.X.Tick.Marker = plot.TimeTicks{Format: covid.DateLayout}
	p.Y.Tick.Marker = plot.DefaultTicks{}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	line, scatter, err := plotter.NewLinePoints(chart.Points)
	if err != nil {
		r.tel.ReportBroken(report_chart_render, err)
		return Chart{}, err
	}
	if metric == covid.METRIC_DEATHS {
		line.Color = color.Black
		scatter.Color = color.Black
		scatter.Shape = draw.PlusGlyph{}
	} else {
		line.Color = color.RGBA{R: 220, A: 255}
		scatter.Color = color.RGBA{R: 220, A: 255}
		scatter.Shape = draw.CircleGlyph{}
	}
	scatter.Radius = vg.Points(3)
	p.Add(line, scatter)
	p.Legend.Add(fmt.Sprintf("Reported %s", metric), line, scatter)

	if r.opts.Fit {
		r.overlayModels(p, &chart, windowed, metric)
	}

	img := r.draw(p)

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		r.tel.ReportBroken(report_chart_render, err, chart.FileName())
		return Chart{}, err
	}
	chart.PNG = buf.Bytes()

	if r.opts.ThumbnailWidth > 0 {
		thumb := imaging.Resize(img, r.opts.ThumbnailWidth, 0, imaging.Lanczos)
		var thumbBuf bytes.Buffer
		err = imaging.Encode(&thumbBuf, thumb, imaging.PNG)
		if err != nil {
			r.tel.ReportBroken(report_chart_render, err, chart.ThumbnailFileName())
			return Chart{}, err
		}
		chart.Thumbnail = thumbBuf.Bytes()
	}

	return chart, nil
}

func (r Renderer) draw(p *plot.Plot) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, r.opts.WidthPx, r.opts.HeightPx))
	canvas := vgimg.NewWith(vgimg.UseImage(img), vgimg.UseDPI(dpi))
	p.Draw(draw.New(canvas))
	return canvas.Image()
}

// overlayModels adds the fitted models to the plot, a model that cannot be
// fitted is left out.
func (r Renderer) overlayModels(p *plot.Plot, chart *Chart, series covid.Series, metric covid.Metric) {
	data := fit.FromSeries(series, metric)
	lastDay := data.Days[len(data.Days)-1]
	to := lastDay + float64(r.opts.ForecastDays)

	// the exponential model is clipped so it does not flatten the data
	ceiling := 2 * data.Values[len(data.Values)-1]

	logistic, err := fit.FitLogistic(data)
	if err != nil {
		r.tel.ReportDebug(report_chart_fit, "logistic", err)
	} else {
		chart.Logistic = logistic
		r.addModel(p, data, logistic, to, math.Inf(1), "Logistic model", color.RGBA{B: 200, A: 255})
		ceiling = math.Max(ceiling, logistic.Total())
	}

	exponential, err := fit.FitExponential(data)
	if err != nil {
		r.tel.ReportDebug(report_chart_fit, "exponential", err)
	} else {
		chart.Exponential = exponential
		r.addModel(p, data, exponential, to, ceiling, "Exponential model", color.RGBA{G: 160, A: 255})
	}
}

func (r Renderer) addModel(p *plot.Plot, data fit.Data, model fit.Model, to, ceiling float64, name string, c color.Color) {
	days, values := fit.Curve(model, 0, to)
	var xys plotter.XYs
	for i := range days {
		if values[i] > ceiling {
			break
		}
		xys = append(xys, plotter.XY{
			X: float64(data.DateOf(days[i]).Unix()),
			Y: values[i],
		})
	}
	if len(xys) < 2 {
		return
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		r.tel.ReportWarning(report_chart_fit, err, name)
		return
	}
	line.Color = c
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(line)
	p.Legend.Add(name, line)
}

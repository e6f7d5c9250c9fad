package koronavirus

import (
	"context"
	"covidcurve/internal/components/assert"
	"covidcurve/internal/components/restyutil"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"dario.cat/mergo"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
	report_client_dump  = "client.dump"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Fetcher retrieves the raw contents of a page.
type Fetcher interface {
	Fetch(ctx context.Context, link string) ([]byte, error)
}

type ClientOptions struct {
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond limits the request rate, 0 means unlimited.
	RequestsPerSecond float64
	UserAgent         string
	// CloudflareBypass wraps the transport so requests look like they come
	// from a browser.
	CloudflareBypass bool
	// DumpDir, when set, receives a copy of every exchange with the site.
	DumpDir string
}

// Client is the Fetcher for the statistics site.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("koronavirus", tel)

	// only the zero fields are filled in
	assert.NoError(mergo.Merge(&opts, ClientOptions{
		Timeout:   time.Second * 30,
		UserAgent: defaultUserAgent,
	}))

	httpClient := resty.New()
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		// burst of 1 so that paging through the news feed is evenly spaced
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			tel.ReportWarning(report_client_dump, err, opts.DumpDir)
		} else {
			restyutil.Dump(httpClient, output, func(err error) {
				tel.ReportWarning(report_client_dump, err)
			})
		}
	}

	return &Client{
		http: httpClient,
		tel:  tel,
	}
}

func (c *Client) Fetch(ctx context.Context, link string) ([]byte, error) {
	c.tel.ReportDebug(report_client_fetch, link)

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("request: %w", err),
			link,
		)
		return nil, fmt.Errorf("%w: fetch %s: %w", covid.ErrNetwork, link, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := fmt.Errorf("%w: fetch %s: unexpected status %s", covid.ErrNetwork, link, res.Status())
		c.tel.ReportBroken(report_client_fetch, err, link)
		return nil, err
	}

	return res.Body(), nil
}

// NewsPageURL returns the link to the nth page (starting at 0) of the news feed.
func NewsPageURL(newsUrl string, page int) (string, error) {
	link, err := url.Parse(newsUrl)
	if err != nil {
		return "", err
	}
	query := link.Query()
	query.Set("page", strconv.Itoa(page))
	link.RawQuery = query.Encode()
	return link.String(), nil
}

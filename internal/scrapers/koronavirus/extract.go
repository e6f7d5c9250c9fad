package koronavirus

import (
	"bytes"
	"covidcurve/internal/covid"
	"covidcurve/pkg/htmlutil"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns the contents of the statistics page into the cumulative
// counts it shows. It is the only thing that knows about the page's markup.
type Extractor interface {
	Extract(page []byte) (covid.Totals, error)
}

// ids of the counters on koronavirus.gov.hu, the totals are split between
// Budapest (pest) and the rest of the country (videk)
var (
	DefaultCaseCounters  = []string{"api-fertozott-pest", "api-fertozott-videk"}
	DefaultDeathCounters = []string{"api-elhunyt-pest", "api-elhunyt-videk"}
)

// CounterExtractor sums the values of counter elements, looked up by id.
type CounterExtractor struct {
	Cases  []string
	Deaths []string
}

func NewCounterExtractor(cases, deaths []string) CounterExtractor {
	if len(cases) == 0 {
		cases = DefaultCaseCounters
	}
	if len(deaths) == 0 {
		deaths = DefaultDeathCounters
	}
	return CounterExtractor{Cases: cases, Deaths: deaths}
}

func (e CounterExtractor) Extract(page []byte) (covid.Totals, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return covid.Totals{}, fmt.Errorf("%w: %w", covid.ErrParse, err)
	}

	cases, err := sumCounters(doc, e.Cases)
	if err != nil {
		return covid.Totals{}, err
	}
	deaths, err := sumCounters(doc, e.Deaths)
	if err != nil {
		return covid.Totals{}, err
	}
	return covid.Totals{Cases: cases, Deaths: deaths}, nil
}

func sumCounters(doc *goquery.Document, ids []string) (int64, error) {
	var total int64
	for _, id := range ids {
		sel := doc.Find("#" + id)
		if sel.Length() == 0 {
			return 0, fmt.Errorf("%w: counter #%s not found", covid.ErrParse, id)
		}
		text := htmlutil.SelectionText(sel.First())
		n, err := ParseCount(text)
		if err != nil {
			return 0, fmt.Errorf("%w: counter #%s: %w", covid.ErrParse, id, err)
		}
		total += n
	}
	return total, nil
}

// ParseCount parses a non-negative count which may use spaces, dots or
// commas as thousands separators.
func ParseCount(text string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' || r == ',' {
			return -1
		}
		return r
	}, text)
	if digits == "" {
		return 0, fmt.Errorf("empty count")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a count", text)
		}
	}
	return strconv.ParseInt(digits, 10, 64)
}

package koronavirus

import (
	"bytes"
	"covidcurve/internal/covid"
	"covidcurve/pkg/htmlutil"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// DailyReport is a day's increments as announced in the news feed.
type DailyReport struct {
	Date      time.Time
	NewCases  int64
	NewDeaths int64
}

const count = `(\d{1,3}(?:[ .]\d{3})+|\d+)`

var (
	casesRegex  = regexp.MustCompile(count + ` fővel emelkedett`)
	deathsRegex = regexp.MustCompile(`(?i)elhunyt ` + count + `\b`)
	dateRegex   = regexp.MustCompile(`(\d{4})\. ?(\p{L}+) (\d{1,2})\.`)
)

var months = map[string]time.Month{
	"január":     time.January,
	"február":    time.February,
	"március":    time.March,
	"április":    time.April,
	"május":      time.May,
	"június":     time.June,
	"július":     time.July,
	"augusztus":  time.August,
	"szeptember": time.September,
	"október":    time.October,
	"november":   time.November,
	"december":   time.December,
}

// minimum Jaro-Winkler similarity for a misspelled month name to count
const monthSimilarity = 0.85

// ParseMonth resolves a Hungarian month name, tolerating missing accents
// and small misspellings.
func ParseMonth(name string) (time.Month, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if m, ok := months[name]; ok {
		return m, nil
	}

	var best time.Month
	var bestSimilarity float64
	for candidate, m := range months {
		similarity := matchr.JaroWinkler(name, candidate, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = m
		}
	}
	if bestSimilarity < monthSimilarity {
		return 0, fmt.Errorf("%w: unknown month %q", covid.ErrParse, name)
	}
	return best, nil
}

// ParseDate parses a Hungarian long date ("2021. március 3. 10:12").
func ParseDate(text string) (time.Time, error) {
	groups := dateRegex.FindStringSubmatch(htmlutil.Normalize(text))
	if groups == nil {
		return time.Time{}, fmt.Errorf("%w: no date in %q", covid.ErrParse, text)
	}
	year, err := strconv.Atoi(groups[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", covid.ErrParse, err)
	}
	month, err := ParseMonth(groups[2])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(groups[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", covid.ErrParse, err)
	}
	// time.Date normalizes "február 30." into march
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != month {
		return time.Time{}, fmt.Errorf("%w: invalid day in %q", covid.ErrParse, text)
	}
	return date, nil
}

// ParseTitle extracts the increments from a daily report headline, ok is
// false for headlines that are not daily reports.
func ParseTitle(title string) (newCases, newDeaths int64, ok bool) {
	title = htmlutil.Normalize(title)

	casesGroups := casesRegex.FindStringSubmatch(title)
	if casesGroups == nil {
		return 0, 0, false
	}
	deathsGroups := deathsRegex.FindStringSubmatch(title)
	if deathsGroups == nil {
		return 0, 0, false
	}

	newCases, err := ParseCount(casesGroups[1])
	if err != nil {
		return 0, 0, false
	}
	newDeaths, err = ParseCount(deathsGroups[1])
	if err != nil {
		return 0, 0, false
	}
	return newCases, newDeaths, true
}

// ParseNewsPage returns the daily reports of a news feed page in the order
// they appear (newest first on the live site). Teasers that are not daily
// reports are skipped.
func ParseNewsPage(page []byte) ([]DailyReport, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", covid.ErrParse, err)
	}

	teasers := doc.Find(".article-teaser")
	if teasers.Length() == 0 {
		return nil, fmt.Errorf("%w: no article teasers on page", covid.ErrParse)
	}

	var reports []DailyReport
	var parseErr error
	teasers.EachWithBreak(func(_ int, teaser *goquery.Selection) bool {
		newCases, newDeaths, ok := ParseTitle(htmlutil.SelectionText(teaser.Find("h3").First()))
		if !ok {
			return true
		}
		date, err := ParseDate(htmlutil.SelectionText(teaser.Find("i").First()))
		if err != nil {
			parseErr = err
			return false
		}
		reports = append(reports, DailyReport{
			Date:      date,
			NewCases:  newCases,
			NewDeaths: newDeaths,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return reports, nil
}

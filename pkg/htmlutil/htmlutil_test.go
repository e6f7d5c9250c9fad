package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "4 405 fővel", Normalize("  4 405\n\t fővel "))
	require.Equal(t, "4 405 fővel", Normalize("  4\u00a0405\n\t fővel "))
	require.Equal(t, "", Normalize("\u200b"))
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span class="n">1 <b>234</b></span><span class="n">56</span></div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "1 234 56", SelectionText(doc.Find("span.n")))
}

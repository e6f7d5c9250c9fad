package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Normalize turns non-breaking spaces into spaces, drops non-printable
// characters and collapses runs of whitespace.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		// includes non-breaking and narrow no-break spaces
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SelectionText is the normalized text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var out strings.Builder
	for i, n := range sel.Nodes {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(GetText(n))
	}
	return Normalize(out.String())
}

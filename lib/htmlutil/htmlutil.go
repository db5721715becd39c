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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// the visible text of a selection with non-printable runes dropped
// and runs of whitespace collapsed to a single space.
func CleanText(sel *goquery.Selection) string {
	var texts []string
	for _, n := range sel.Nodes {
		texts = append(texts, GetText(n))
	}
	text := strings.Join(texts, " ")
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// the cleaned text of the nth <td>/<th> cell of a table row,
// or "" when the row has fewer cells.
func CellText(row *goquery.Selection, n int) string {
	cells := row.Find("td, th")
	if n >= cells.Length() {
		return ""
	}
	return CleanText(cells.Eq(n))
}

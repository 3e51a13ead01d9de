package htmlutil

import (
	"bytes"
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

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText removes every rune in `strip` from s and trims the
// surrounding whitespace.
func CleanText(s string, strip string) string {
	s = removeNonPrintable(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(strip, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// GetTexts returns the cleaned text of every node in the selection,
// nodes that end up empty are skipped.
func GetTexts(sel *goquery.Selection, strip string) []string {
	var out []string
	for _, n := range sel.Nodes {
		text := CleanText(GetText(n), strip)
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

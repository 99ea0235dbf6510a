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

var whitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean drops non-printable characters, trims the string and collapses
// inner runs of whitespace into a single space.
func Clean(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return s
}

// Text returns the cleaned text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return Clean(buffer.String())
}

// ClassSelector builds a selector matching `tag` elements carrying every class
// in the space separated `classes`, ex. ("table", "table table-bordered") -> "table.table.table-bordered".
func ClassSelector(tag, classes string) string {
	var out strings.Builder
	out.WriteString(tag)
	for _, class := range strings.Fields(classes) {
		out.WriteString(".")
		out.WriteString(class)
	}
	return out.String()
}

// FindByClass finds the first `tag` element under `sel` carrying all of `classes`.
func FindByClass(sel *goquery.Selection, tag, classes string) *goquery.Selection {
	return sel.Find(ClassSelector(tag, classes)).First()
}

// InputValue returns the value of the first input named `name`, the boolean
// is false when no such input exists.
func InputValue(sel *goquery.Selection, name string) (string, bool) {
	var found *goquery.Selection
	sel.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		if input.AttrOr("name", "") == name {
			found = input
			return false
		}
		return true
	})
	if found == nil {
		return "", false
	}
	return found.AttrOr("value", ""), true
}

type Field struct {
	Name  string
	Value string
}

// HiddenInputs returns every named hidden input under `sel` in document order.
func HiddenInputs(sel *goquery.Selection) []Field {
	var fields []Field
	sel.Find("input").Each(func(_ int, input *goquery.Selection) {
		if !strings.EqualFold(input.AttrOr("type", ""), "hidden") {
			return
		}
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		fields = append(fields, Field{
			Name:  name,
			Value: input.AttrOr("value", ""),
		})
	})
	return fields
}

// TableRows returns the cleaned cell texts of each row within the table body(s) of `table`.
func TableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, Text(cell))
		})
		rows = append(rows, cells)
	})
	return rows
}

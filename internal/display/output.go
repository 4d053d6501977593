package display

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatXML   = "xml"
)

// Column maps a record field to a table header.
type Column struct {
	Key    string
	Header string
}

// Record is one row of output keyed by column key.
type Record map[string]string

// Listing is a set of records with the element names used for XML output.
type Listing struct {
	Root    string
	Item    string
	Columns []Column
	Records []Record
}

// Write renders l in format. Unknown formats fall back to a table.
func (l *Listing) Write(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		return l.writeJSON(w)
	case FormatXML:
		return l.writeXML(w)
	default:
		_, err := fmt.Fprintln(w, Table(l.Columns, l.Records))
		return err
	}
}

func (l *Listing) writeJSON(w io.Writer) error {
	items := make([]map[string]string, len(l.Records))
	for i, r := range l.Records {
		items[i] = r
	}
	return WriteJSON(w, items)
}

// WriteJSON writes v as JSON indented with two spaces.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteXML writes v as an XML document with the given root element,
// indented with two spaces.
func WriteXML(w io.Writer, root string, v any) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: root}}); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (l *Listing) writeXML(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>\n", l.Root)
	for _, r := range l.Records {
		fmt.Fprintf(&b, "  <%s>\n", l.Item)
		for _, c := range l.Columns {
			fmt.Fprintf(&b, "    <%s>%s</%s>\n", c.Key, escapeXML(r[c.Key]), c.Key)
		}
		fmt.Fprintf(&b, "  </%s>\n", l.Item)
	}
	fmt.Fprintf(&b, "</%s>\n", l.Root)
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders records as a bordered table.
func Table(columns []Column, records []Record) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = r[c.Key]
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

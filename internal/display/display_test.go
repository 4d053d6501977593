package display

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatTimeZero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "" {
		t.Errorf("FormatTime(zero) = %q", got)
	}
}

func sampleListing() *Listing {
	return &Listing{
		Root: "buckets",
		Item: "bucket",
		Columns: []Column{
			{Key: "name", Header: "Name"},
			{Key: "created", Header: "Created"},
		},
		Records: []Record{
			{"name": "photos", "created": "today"},
			{"name": "a<b", "created": ""},
		},
	}
}

func TestListingJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleListing().Write(&buf, FormatJSON); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	want := "[\n  {\n    \"created\": \"today\",\n    \"name\": \"photos\"\n  },"
	if !strings.HasPrefix(buf.String(), want) {
		t.Errorf("json output:\n%s", buf.String())
	}
}

func TestListingXML(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleListing().Write(&buf, FormatXML); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	want := `<buckets>
  <bucket>
    <name>photos</name>
    <created>today</created>
  </bucket>
  <bucket>
    <name>a&lt;b</name>
    <created></created>
  </bucket>
</buckets>
`
	if buf.String() != want {
		t.Errorf("xml output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestListingTable(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleListing().Write(&buf, "table"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	for _, want := range []string{"Name", "Created", "photos", "today"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("table missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRenderMarkdownRawWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, "# Title\n"); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if buf.String() != "# Title\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteXML(t *testing.T) {
	type item struct {
		Name  string   `xml:"name"`
		Tags  []string `xml:"tags>tag,omitempty"`
		Empty string   `xml:"empty,omitempty"`
	}
	var buf bytes.Buffer
	if err := WriteXML(&buf, "whoami", item{Name: "a&b", Tags: []string{"x"}}); err != nil {
		t.Fatalf("WriteXML() error = %v", err)
	}
	want := "<whoami>\n  <name>a&amp;b</name>\n  <tags>\n    <tag>x</tag>\n  </tags>\n</whoami>\n"
	if buf.String() != want {
		t.Errorf("WriteXML() = %q, want %q", buf.String(), want)
	}
}

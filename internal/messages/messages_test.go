package messages

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"

	"github.com/tigrisdata/cli/internal/spec"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     Vars
		want     string
	}{
		{"plain", "Done", nil, "Done"},
		{"variable", "Bucket '{{name}}' created", Vars{"name": "photos"}, "Bucket 'photos' created"},
		{"number", "Found {{count}} bucket(s)", Vars{"count": 3}, "Found 3 bucket(s)"},
		{"unknown kept", "Hello {{who}}", Vars{"name": "x"}, "Hello {{who}}"},
		{"nil vars keep placeholders", "Hello {{who}}", nil, "Hello {{who}}"},
		{"newline", `line one\nline two`, nil, "line one\nline two"},
		{"repeated", "{{a}}-{{a}}", Vars{"a": "x"}, "x-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Interpolate(tt.template, tt.vars); got != tt.want {
				t.Errorf("Interpolate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrinter(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	set := &spec.Messages{
		OnStart:       "Creating bucket...",
		OnSuccess:     "Bucket '{{name}}' created",
		OnFailure:     "Failed to create bucket",
		OnEmpty:       "No buckets found",
		OnAlreadyDone: "Bucket '{{name}}' already exists",
		Hint:          "Run \"tigris ls {{name}}\"",
	}
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, set)
	vars := Vars{"name": "photos"}

	p.Start(vars)
	p.Success(vars)
	p.Empty(vars)
	p.AlreadyDone(vars)
	p.Hint(vars)
	p.Failure(errors.New("access denied"), vars)

	wantOut := "Creating bucket...\n" +
		"✔ Bucket 'photos' created\n" +
		"No buckets found\n" +
		"Bucket 'photos' already exists\n" +
		"→ Run \"tigris ls photos\"\n"
	if out.String() != wantOut {
		t.Errorf("stdout:\n%q\nwant:\n%q", out.String(), wantOut)
	}
	wantErr := "✖ Failed to create bucket\n  access denied\n"
	if errOut.String() != wantErr {
		t.Errorf("stderr = %q, want %q", errOut.String(), wantErr)
	}
}

func TestPrinterWithoutTemplates(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, nil)
	p.Start(nil)
	p.Success(nil)
	p.Hint(nil)
	p.Failure(errors.New("boom"), nil)
	if out.Len() != 0 {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "  boom\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "test message\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

type report struct{ lines []string }

func (r report) WriteText(w io.Writer) error {
	for _, l := range r.lines {
		if _, err := fmt.Fprintf(w, "- %s\n", l); err != nil {
			return err
		}
	}
	return nil
}

func TestTextFormatterUsesTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, report{lines: []string{"a", "b"}}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	expected := "- a\n- b\n"
	if buf.String() != expected {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), expected)
	}
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]any{"provider": "primary", "cost": 0.5}

	tests := []struct {
		name   string
		indent bool
	}{
		{name: "compact", indent: false},
		{name: "indented", indent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}

			output, err := formatter.Format(data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			var decoded map[string]any
			if err := json.Unmarshal(output, &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if decoded["provider"] != "primary" {
				t.Errorf("provider = %v, want primary", decoded["provider"])
			}
			if hasNewline := bytes.Contains(output, []byte("\n")); hasNewline != tt.indent {
				t.Errorf("indentation = %v, want %v", hasNewline, tt.indent)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  OutputFormat
		want    string
		wantErr bool
	}{
		{format: "", want: "*cli.TextFormatter"},
		{format: FormatText, want: "*cli.TextFormatter"},
		{format: FormatJSON, want: "*cli.JSONFormatter"},
		{format: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			formatter, err := NewFormatter(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported format")
				}
				if ExitCode(err) != ExitConfig {
					t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitConfig)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}
			if got := fmt.Sprintf("%T", formatter); got != tt.want {
				t.Errorf("NewFormatter() = %s, want %s", got, tt.want)
			}
		})
	}
}

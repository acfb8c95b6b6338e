// Package output renders inference results for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter writes a value in one output format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format. Unknown formats render tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// ParseFormat converts a flag value to a Format.
// The empty string selects DetectFormat.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	case "":
		return DetectFormat(), nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
	}
}

// DetectFormat picks tables for terminals and JSON for pipes and redirects.
func DetectFormat() Format {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// JSONFormatter outputs JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(data)
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

// Format implements Formatter.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	b, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// TableFormatter outputs aligned text tables.
// Runs, feature metadata, and backend listings have dedicated layouts;
// anything else is written as JSON.
type TableFormatter struct{}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return writeTable(w, v)
	case *core.Run:
		return writeTable(w, RunData(v))
	case *core.FeatureMetadata:
		return writeTable(w, MetadataData(v, nil))
	case []core.BackendInfo:
		return writeTable(w, BackendData(v))
	case []core.RunSummary:
		return writeTable(w, RunSummaryData(v))
	default:
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
}

// Data is a table ready for rendering.
type Data struct {
	Headers []string
	Rows    [][]string
}

func writeTable(w io.Writer, data Data) error {
	align := make([]tw.Align, len(data.Headers))
	for i := range align {
		align[i] = tw.AlignLeft
	}
	config := tablewriter.Config{}
	config.Header.Alignment = tw.CellAlignment{PerColumn: align}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	headers := make([]any, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = h
	}
	table.Header(headers...)

	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// RunData lays out one row per column of a run.
func RunData(run *core.Run) Data {
	return MetadataData(run.Metadata, run.Codes)
}

// MetadataData lays out one row per feature. codes may be nil.
func MetadataData(md *core.FeatureMetadata, codes map[string]core.ClassifierCode) Data {
	data := Data{Headers: []string{"COLUMN", "RAW TYPE", "SPECIAL"}}
	if codes != nil {
		data.Headers = []string{"COLUMN", "CODE", "RAW TYPE", "SPECIAL"}
	}
	for _, f := range md.Features {
		var tags []string
		for _, t := range md.SpecialTypes(f) {
			tags = append(tags, string(t))
		}
		special := "-"
		if len(tags) > 0 {
			special = strings.Join(tags, ",")
		}
		raw, _ := md.RawType(f)
		if codes != nil {
			data.Rows = append(data.Rows, []string{f, codes[f].String(), string(raw), special})
		} else {
			data.Rows = append(data.Rows, []string{f, string(raw), special})
		}
	}
	return data
}

// BackendData lays out registered classifier backends.
func BackendData(backends []core.BackendInfo) Data {
	data := Data{Headers: []string{"NAME", "DESCRIPTION"}}
	sorted := append([]core.BackendInfo(nil), backends...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, b := range sorted {
		data.Rows = append(data.Rows, []string{b.Name, b.Description})
	}
	return data
}

// RunSummaryData lays out run history.
func RunSummaryData(runs []core.RunSummary) Data {
	data := Data{Headers: []string{"ID", "SOURCE", "CLASSIFIER", "COLUMNS", "ROWS", "CREATED"}}
	for _, r := range runs {
		data.Rows = append(data.Rows, []string{
			r.ID.String(),
			r.Source,
			r.Classifier,
			strconv.Itoa(r.Columns),
			strconv.Itoa(r.Rows),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return data
}

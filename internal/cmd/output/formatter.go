// Package output renders command results as tables, JSON, YAML or
// markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/plantmap/pkg/errors"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatWide represents wide table output format.
	FormatWide Format = "wide"
)

// Align is a table column alignment.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable, FormatWide:
		return &TableFormatter{Wide: format == FormatWide}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter outputs JSON format.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	_, err = w.Write(out)
	return err
}

// TableFormatter outputs table format. Struct fields tagged table:"wide"
// only appear when Wide is set; fields tagged table:"-" never do.
type TableFormatter struct {
	Wide bool
}

// Format outputs data in table format.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if d, ok := data.(Data); ok {
		return f.render(w, d)
	}
	if d, ok := f.toData(data); ok {
		return f.render(w, d)
	}
	return (&JSONFormatter{Indent: "  "}).Format(w, data)
}

func (f *TableFormatter) render(w io.Writer, data Data) error {
	config := tablewriter.Config{}
	if len(data.ColumnAlignment) > 0 {
		aligns := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			aligns[i] = a.tw()
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: aligns}
		config.Row.Alignment = tw.CellAlignment{PerColumn: aligns}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		table.Header(toAny(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(toAny(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func (a Align) tw() tw.Align {
	switch a {
	case AlignLeft:
		return tw.AlignLeft
	case AlignCenter:
		return tw.AlignCenter
	case AlignRight:
		return tw.AlignRight
	default:
		return tw.Skip
	}
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// Data represents data formatted for table output.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // optional, one per column
}

// DetectFormat auto-detects format based on terminal and environment.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	// Pipes and redirects get JSON
	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	default:
		return "", errors.NewValidationError("format", s, "must be one of: table, json, yaml, wide")
	}
}

// toData converts a struct or a non-empty slice of structs into Data.
func (f *TableFormatter) toData(data any) (Data, bool) {
	v := reflect.Indirect(reflect.ValueOf(data))
	switch {
	case v.Kind() == reflect.Struct:
		return f.structData(v), true
	case v.Kind() == reflect.Slice && v.Len() > 0 && reflect.Indirect(v.Index(0)).Kind() == reflect.Struct:
		return f.sliceData(v), true
	default:
		return Data{}, false
	}
}

// columns lists the visible field indexes of t with their titles.
func (f *TableFormatter) columns(t reflect.Type) ([]int, []string) {
	caser := cases.Title(language.English)
	var (
		idx    []int
		titles []string
	)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		switch field.Tag.Get("table") {
		case "-":
			continue
		case "wide":
			if !f.Wide {
				continue
			}
		}
		title := field.Name
		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			name, _, _ := strings.Cut(tag, ",")
			title = caser.String(strings.ReplaceAll(name, "_", " "))
		}
		idx = append(idx, i)
		titles = append(titles, title)
	}
	return idx, titles
}

func (f *TableFormatter) sliceData(v reflect.Value) Data {
	idx, headers := f.columns(reflect.Indirect(v.Index(0)).Type())
	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := reflect.Indirect(v.Index(i))
		row := make([]string, len(idx))
		for j, fi := range idx {
			row[j] = cell(elem.Field(fi))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// structData renders a single struct as a property/value table.
func (f *TableFormatter) structData(v reflect.Value) Data {
	idx, titles := f.columns(v.Type())
	rows := make([][]string, len(idx))
	for j, fi := range idx {
		rows[j] = []string{titles[j], cell(v.Field(fi))}
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// cell formats one value; nil pointers render as "-".
func cell(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case fmt.Stringer:
		return x.String()
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprintf("%v", x)
	}
}

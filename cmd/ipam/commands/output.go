package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

func outputFormat() string {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable
	}

	return format
}

// renderStructured writes v as JSON or YAML. It reports false for table output.
func renderStructured(w io.Writer, v any) (bool, error) {
	switch outputFormat() {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return true, encoder.Encode(v)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return true, encoder.Encode(v)
	case constants.FormatTable:
		return false, nil
	default:
		return true, fmt.Errorf("%w: %s", ipam.ErrUnsupportedOutputType, outputFormat())
	}
}

// render writes v in the configured format, using header and rows for tables.
func render(cmd *cobra.Command, v any, header []string, rows [][]string) error {
	handled, err := renderStructured(cmd.OutOrStdout(), v)
	if handled {
		return err
	}

	return renderTable(cmd.OutOrStdout(), header, rows)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	cells := make([]any, 0, len(header))
	for _, h := range header {
		cells = append(cells, h)
	}

	table.Header(cells...)

	for _, row := range rows {
		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderProperties(cmd *cobra.Command, v any, properties [][]string) error {
	return render(cmd, v, []string{"Property", "Value"}, properties)
}

func orNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return t.Format(time.RFC3339)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return constants.NotAvailable
	}

	return strconv.Itoa(*v)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}

	return s[:length-3] + "..."
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	return constants.MaskedSecret
}

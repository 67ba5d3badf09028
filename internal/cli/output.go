package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// emit prints v as indented JSON when --json is set, otherwise runs text.
func (e *env) emit(cmd *cobra.Command, v any, text func() error) error {
	if !e.jsonOut {
		return text()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func printLine(cmd *cobra.Command, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), args...)
}

func done(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf(format, args...)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

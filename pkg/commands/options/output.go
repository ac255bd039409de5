package options

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/printers"
)

// OutputOptions
type OutputOptions struct {
	Output string
}

func AddOutputArg(cmd *cobra.Command, o *OutputOptions) {
	cmd.PersistentFlags().StringVarP(&o.Output, "output", "o", printers.FormatText,
		"Output format. One of 'text', 'json' or 'yaml'.")
}

// Structured reports whether results should be encoded instead of pretty
// printed.
func (o *OutputOptions) Structured() bool {
	return o.Output == printers.FormatJSON || o.Output == printers.FormatYAML
}

// Print encodes v in structured mode, otherwise calls pretty.
func (o *OutputOptions) Print(w io.Writer, v interface{}, pretty func()) error {
	if o.Structured() {
		return printers.Encode(w, o.Output, v)
	}
	if o.Output != "" && o.Output != printers.FormatText {
		return fmt.Errorf("unsupported output format %q", o.Output)
	}
	pretty()
	return nil
}

// HandleError prints err as a JSON object when JSON output was requested.
func (o *OutputOptions) HandleError(err error) error {
	if o.Output == printers.FormatJSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/cmdutil"
	"github.com/opmodel/optimize/internal/options"
	"github.com/opmodel/optimize/internal/output"
)

// NewExplainCmd creates the explain command.
func NewExplainCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var diffFlag bool

	c := &cobra.Command{
		Use:   "explain FUNCTION",
		Short: "Show the effective options of a function",
		Long: `Resolve and print the options a function would be built with: the
built-in defaults, overridden by custom.optimize, overridden by the
function's own optimize block.

With --diff a report of what differs from the built-in defaults is shown.

Examples:
  optimize explain api
  optimize explain api --diff
  optimize explain api -o table`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runExplain(c, cfg, args[0], diffFlag)
		},
	}

	c.Flags().BoolVar(&diffFlag, "diff", false, "Show differences from the built-in defaults")
	return c
}

func runExplain(c *cobra.Command, cfg *cmdtypes.GlobalConfig, name string, diff bool) error {
	s, err := cmdutil.Open(cfg)
	if err != nil {
		return fail("loading service", err)
	}

	effective, err := s.Controller.Effective(name)
	if err != nil {
		return fail("resolving options", err)
	}

	w := c.OutOrStdout()
	if diff {
		report, err := diffFromDefaults(s.Controller.Defaults(), effective)
		if err != nil {
			return fail("computing diff", err)
		}
		if report == "" {
			_, err = fmt.Fprintln(w, output.FormatCheckmark("matches the built-in defaults"))
			return err
		}
		_, err = fmt.Fprint(w, report)
		return err
	}

	if outputFormat(cfg) == output.FormatTable {
		rows, err := optionRows(effective)
		if err != nil {
			return fail("rendering options", err)
		}
		t := output.NewTable("OPTION", "VALUE")
		for _, r := range rows {
			t.Row(r[0], r[1])
		}
		_, err = fmt.Fprintln(w, t.String())
		return err
	}

	if err := output.WriteDocument(w, effective, outputFormat(cfg)); err != nil {
		return fail("writing options", err)
	}
	return nil
}

func diffFromDefaults(defaults, effective options.Options) (string, error) {
	var from, to bytes.Buffer
	if err := output.WriteDocument(&from, defaults, output.FormatYAML); err != nil {
		return "", err
	}
	if err := output.WriteDocument(&to, effective, output.FormatYAML); err != nil {
		return "", err
	}
	return output.DiffYAML("defaults", from.Bytes(), "effective", to.Bytes(), output.IsTTY())
}

// optionRows flattens options to sorted key/value pairs, values as compact JSON.
func optionRows(o options.Options) ([][2]string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{k, string(fields[k])})
	}
	return rows, nil
}

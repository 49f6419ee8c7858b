package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/loader"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the registered field types and their defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := fields.Default()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tDEFAULT LABEL\tMETA")
		for _, fieldType := range registry.Types() {
			props := registry.MustResolve(fieldType).Defaults()
			fmt.Fprintf(tw, "%s\t%s\t%s\n", fieldType, props.Label, metaKeys(props.Meta))
		}
		return tw.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check form definition files",
	Long: `Validate loads every definition file under dir (forms.dir by default)
and reports the first problem found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Forms.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("no directory given and forms.dir is not set")
		}
		set, err := loader.LoadDir(dir, fields.Default())
		if err != nil {
			return err
		}
		for _, form := range set.Forms {
			fmt.Fprintf(cmd.OutOrStdout(), "ok  %s  %s (%d fields)\n", set.Sources[form.ID], form.ID, len(form.Fields))
		}
		return nil
	},
}

func metaKeys(meta map[string]any) string {
	if len(meta) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

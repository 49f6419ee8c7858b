package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/tui"
	"github.com/goliatone/go-formbuilder/pkg/submission"
)

var (
	fillFormID  string
	fillFormat  string
	fillConfirm bool
)

var fillCmd = &cobra.Command{
	Use:   "fill <file>",
	Short: "Fill a form interactively in the terminal",
	Long: `Fill prompts for every field of a definition file and prints the answers.
Answers are checked against the form's submission schema before printing.

Output formats: json, form, pretty`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVar(&fillFormID, "form", "", "form id when the file holds several forms")
	fillCmd.Flags().StringVar(&fillFormat, "format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	fillCmd.Flags().BoolVar(&fillConfirm, "confirm", true, "ask for confirmation before printing")
}

func runFill(cmd *cobra.Command, args []string) error {
	format := tui.OutputFormat(fillFormat)
	switch format {
	case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
	default:
		return fmt.Errorf("unknown format %q (valid: json, form, pretty)", fillFormat)
	}

	form, err := loadForm(args[0], fillFormID)
	if err != nil {
		return err
	}

	renderers, err := newRenderers(rendererSetup{
		prompts: cmd.ErrOrStderr(),
		tuiOptions: []tui.Option{
			tui.WithOutputFormat(format),
			tui.WithConfirmSubmit(fillConfirm),
			tui.WithSubmitTransformer(func(answers map[string]any) (map[string]any, error) {
				return answers, submission.Validate(fields.Default(), form, answers)
			}),
		},
	})
	if err != nil {
		return err
	}
	renderer, err := pickRenderer(renderers, "tui")
	if err != nil {
		return err
	}

	out, err := renderer.Render(cmd.Context(), form, render.RenderOptions{
		Mode:       model.ModeFill,
		Locale:     cfg.I18n.Locale(""),
		Translator: cfg.I18n.Translator(),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

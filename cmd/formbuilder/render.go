package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/loader"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

var (
	renderFormID    string
	renderMode      string
	renderOutput    string
	renderTemplates string
	renderRenderer  string
	renderLocale    string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a form definition file",
	Long: `Render reads a YAML or JSON definition file and writes the form with the
chosen renderer: html writes markup, tui prompts in the terminal and writes
the answers.

Example:
  formbuilder render forms/contact.yaml --mode preview
  formbuilder render forms/all.yaml --form survey -o survey.html
  formbuilder render forms/contact.yaml --renderer tui --locale en`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderFormID, "form", "", "form id when the file holds several forms")
	renderCmd.Flags().StringVar(&renderMode, "mode", string(model.ModeFill), "edit, fill or preview")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (stdout if empty)")
	renderCmd.Flags().StringVar(&renderTemplates, "templates", "", "directory of template overrides")
	renderCmd.Flags().StringVar(&renderRenderer, "renderer", "html", "renderer name: html or tui")
	renderCmd.Flags().StringVar(&renderLocale, "locale", "", "locale for translated labels (defaults to i18n.default_locale)")
}

func runRender(cmd *cobra.Command, args []string) error {
	mode, ok := model.ParseFormMode(renderMode)
	if !ok {
		return fmt.Errorf("unknown mode %q (valid: edit, fill, preview)", renderMode)
	}
	form, err := loadForm(args[0], renderFormID)
	if err != nil {
		return err
	}

	themeCfg, err := resolveTheme(cfg.Theme)
	if err != nil {
		return err
	}
	renderers, err := newRenderers(rendererSetup{templatesDir: renderTemplates, prompts: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	renderer, err := pickRenderer(renderers, renderRenderer)
	if err != nil {
		return err
	}

	opts := render.RenderOptions{
		Mode:          mode,
		Theme:         themeCfg,
		TabIndexStart: 1,
		Locale:        cfg.I18n.Locale(renderLocale),
		Translator:    cfg.I18n.Translator(),
	}
	var output []byte
	if htmlRenderer, ok := renderer.(*html.Renderer); ok {
		result, err := htmlRenderer.RenderForm(cmd.Context(), form, opts)
		if err != nil {
			return err
		}
		for _, fieldErr := range result.Errors {
			logger.Warn("field rendered as error", "field_id", fieldErr.FieldID, "type", fieldErr.Type, "reason", fieldErr.Reason)
		}
		output = result.HTML
	} else if output, err = renderer.Render(cmd.Context(), form, opts); err != nil {
		return err
	}

	if renderOutput == "" {
		_, err = cmd.OutOrStdout().Write(output)
		return err
	}
	if err := os.WriteFile(renderOutput, output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", renderOutput)
	return nil
}

// loadForm loads the definitions in file and picks one. Without an id the
// file must hold exactly one form.
func loadForm(file, id string) (model.Form, error) {
	set, err := loader.LoadFile(file, fields.Default())
	if err != nil {
		return model.Form{}, err
	}
	if id != "" {
		form, ok := set.Form(id)
		if !ok {
			return model.Form{}, fmt.Errorf("form %q not found in %s", id, file)
		}
		return form, nil
	}
	switch len(set.Forms) {
	case 0:
		return model.Form{}, fmt.Errorf("%s: no forms defined", file)
	case 1:
		return set.Forms[0], nil
	default:
		return model.Form{}, fmt.Errorf("%s holds %d forms, pick one with --form", file, len(set.Forms))
	}
}

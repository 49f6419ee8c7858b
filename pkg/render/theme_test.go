package render_test

import (
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/render"
)

func acmeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
		Templates: map[string]string{
			"fields.text": "themes/acme/text.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"formbuilder.stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Templates: map[string]string{
					"forms.panel": "themes/acme/dark/panel.tmpl",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"formbuilder.script": "dark.js",
					},
				},
			},
		},
	}
}

func TestResolveThemeMergesVariant(t *testing.T) {
	selector, err := render.NewStaticSelector(acmeManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}

	cfg, err := render.ResolveTheme(selector, "acme", "dark", render.DefaultThemeFallbacks())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.Partials["fields.text"] != "themes/acme/text.tmpl" {
		t.Fatalf("manifest template missing: %v", cfg.Partials)
	}
	if cfg.Partials["forms.panel"] != "themes/acme/dark/panel.tmpl" {
		t.Fatalf("variant template missing: %v", cfg.Partials)
	}
	if cfg.Partials["forms.form"] != "form.tmpl" {
		t.Fatalf("fallback not applied: %v", cfg.Partials)
	}
	if cfg.Tokens["brand"] != "#654321" || cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("variant tokens not applied: %v %v", cfg.Tokens, cfg.CSSVars)
	}
	if got := cfg.AssetURL("formbuilder.stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if got := cfg.AssetURL("formbuilder.script"); got != "/assets/themes/acme/dark.js" {
		t.Fatalf("unexpected script url %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %q", got)
	}
	if got := render.CSSVarsStyle(cfg); got != ":root { --brand: #654321; }" {
		t.Fatalf("unexpected css vars style %q", got)
	}
}

func TestStaticSelectorErrors(t *testing.T) {
	if _, err := render.NewStaticSelector(acmeManifest(), acmeManifest()); err == nil {
		t.Fatalf("expected duplicate manifest error")
	}

	selector, err := render.NewStaticSelector(acmeManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	if _, err := selector.Select("other", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := selector.Select("acme", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	selection, err := selector.Select("", "")
	if err != nil || selection.Theme != "acme" {
		t.Fatalf("expected default theme, got %v %v", selection, err)
	}
}

func TestResolveThemeWithoutSelector(t *testing.T) {
	cfg, err := render.ResolveTheme(nil, "acme", "", nil)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil config, got %v %v", cfg, err)
	}
}

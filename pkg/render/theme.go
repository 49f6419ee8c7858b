package render

import (
	"fmt"
	"maps"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeFallbacks lists the partials every renderer understands. Theme
// manifests override entries by key.
func DefaultThemeFallbacks() map[string]string {
	return map[string]string{
		"forms.form":        "form.tmpl",
		"forms.field":       "chrome/field.tmpl",
		"forms.field_error": "chrome/field_error.tmpl",
		"forms.panel":       "panel.tmpl",
	}
}

// ResolveTheme asks selector for name/variant and flattens the selection into
// a renderer config. A nil selector yields a nil config.
func ResolveTheme(selector theme.ThemeSelector, name, variant string, fallbacks map[string]string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("render: select theme %q: %w", name, err)
	}
	return RendererConfigFromSelection(selection, fallbacks), nil
}

// RendererConfigFromSelection merges the manifest, the selected variant and
// fallbacks into a RendererConfig. Variant values win over the manifest, which
// wins over fallbacks. Tokens are also exposed as "--<token>" CSS variables.
func RendererConfigFromSelection(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: maps.Clone(fallbacks),
		Tokens:   map[string]string{},
	}
	if cfg.Partials == nil {
		cfg.Partials = map[string]string{}
	}

	var assets theme.Assets
	if manifest := selection.Manifest; manifest != nil {
		maps.Copy(cfg.Partials, manifest.Templates)
		maps.Copy(cfg.Tokens, manifest.Tokens)
		assets = mergeAssets(assets, manifest.Assets)
		if variant, ok := manifest.Variants[selection.Variant]; ok {
			maps.Copy(cfg.Partials, variant.Templates)
			maps.Copy(cfg.Tokens, variant.Tokens)
			assets = mergeAssets(assets, variant.Assets)
		}
	}

	cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = assetResolver(assets)
	return cfg
}

// CSSVarsStyle renders the config's CSS variables as a :root rule with keys in
// sorted order. It returns "" when there is nothing to emit.
func CSSVarsStyle(cfg *theme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cfg.CSSVars))
	for key := range cfg.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {")
	for _, key := range keys {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(cfg.CSSVars[key])
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}

// StaticSelector serves a fixed set of manifests. It is enough for themes
// shipped with the binary or read from a config directory.
type StaticSelector struct {
	manifests map[string]*theme.Manifest
	fallback  string
}

// NewStaticSelector indexes manifests by name. The first manifest is used when
// Select is called with an empty name.
func NewStaticSelector(manifests ...*theme.Manifest) (*StaticSelector, error) {
	selector := &StaticSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			return nil, fmt.Errorf("render: theme manifest name is required")
		}
		if _, exists := selector.manifests[manifest.Name]; exists {
			return nil, fmt.Errorf("render: theme %q already registered", manifest.Name)
		}
		if selector.fallback == "" {
			selector.fallback = manifest.Name
		}
		selector.manifests[manifest.Name] = manifest
	}
	return selector, nil
}

// Select implements theme.ThemeSelector.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		key = s.fallback
	}
	manifest, ok := s.manifests[key]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	variant = strings.TrimSpace(variant)
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", key, variant)
		}
	}
	return &theme.Selection{Theme: key, Variant: variant, Manifest: manifest}, nil
}

func mergeAssets(base, overlay theme.Assets) theme.Assets {
	out := theme.Assets{Prefix: base.Prefix, Files: maps.Clone(base.Files)}
	if prefix := strings.TrimSpace(overlay.Prefix); prefix != "" {
		out.Prefix = prefix
	}
	if len(overlay.Files) > 0 {
		if out.Files == nil {
			out.Files = make(map[string]string, len(overlay.Files))
		}
		maps.Copy(out.Files, overlay.Files)
	}
	return out
}

func assetResolver(assets theme.Assets) func(string) string {
	return func(key string) string {
		file, ok := assets.Files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || assets.Prefix == "" {
			return file
		}
		return path.Join(assets.Prefix, file)
	}
}

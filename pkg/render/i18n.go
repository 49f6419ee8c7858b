package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

const (
	labelKeyHint       = "labelKey"
	placeholderKeyHint = "placeholderKey"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a field
// carries a translation key but no Translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the text used when a key cannot be
// translated. err is the translator error or ErrMissingTranslator.
type MissingTranslationHandler func(locale, key string, fallback string, err error) string

func missingTranslationDefault(_ string, key string, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// Catalog is an in-memory Translator keyed by locale then message key.
type Catalog map[string]map[string]string

// Translate implements Translator.
func (c Catalog) Translate(locale, key string, _ ...any) (string, error) {
	if messages, ok := c[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg, nil
		}
	}
	return "", errors.New("render: missing translation for " + locale + "/" + key)
}

// LocalizeForm replaces field labels and placeholders whose meta carries a
// "labelKey" or "placeholderKey" hint with the translated text. The current
// value is used as the fallback. It mutates form in place and is a no-op when
// no field carries a hint.
func LocalizeForm(form *model.Form, opts RenderOptions) {
	if form == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	for idx := range form.Fields {
		field := &form.Fields[idx]
		if key := model.MetaString(field.Meta, labelKeyHint); key != "" {
			field.Label = translate(opts.Locale, key, field.Label, opts.Translator, onMissing)
		}
		if key := model.MetaString(field.Meta, placeholderKeyHint); key != "" {
			field.Meta = model.CloneMeta(field.Meta)
			field.Meta["placeholder"] = translate(opts.Locale, key, field.Placeholder(), opts.Translator, onMissing)
		}
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if t == nil {
		return onMissing(locale, key, fallback, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, fallback, err)
}

// Package config loads runtime settings from an optional YAML file with
// FORMBUILDER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formbuilder/pkg/render"
)

const (
	// EnvPrefix prefixes environment overrides: server.addr is read from
	// FORMBUILDER_SERVER_ADDR.
	EnvPrefix = "FORMBUILDER"

	configFileName = "formbuilder"
	configFileType = "yaml"

	// Theme partial and asset keys contain dots, so viper nests on "::".
	keyDelimiter = "::"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config is the full set of runtime settings.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Forms    FormsConfig    `mapstructure:"forms"`
	Log      LogConfig      `mapstructure:"log"`
	Theme    ThemeConfig    `mapstructure:"theme"`
	Identity IdentityConfig `mapstructure:"identity"`
	I18n     I18nConfig     `mapstructure:"i18n"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// FormsConfig points at a directory of definition files to seed the store.
type FormsConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ThemeConfig describes one theme inline. When Name is empty the built-in
// look is used.
type ThemeConfig struct {
	Name      string                        `mapstructure:"name"`
	Variant   string                        `mapstructure:"variant"`
	Tokens    map[string]string             `mapstructure:"tokens"`
	Templates map[string]string             `mapstructure:"templates"`
	Assets    ThemeAssets                   `mapstructure:"assets"`
	Variants  map[string]ThemeVariantConfig `mapstructure:"variants"`
}

type ThemeAssets struct {
	Prefix string            `mapstructure:"prefix"`
	Files  map[string]string `mapstructure:"files"`
}

type ThemeVariantConfig struct {
	Tokens    map[string]string `mapstructure:"tokens"`
	Templates map[string]string `mapstructure:"templates"`
	Assets    ThemeAssets       `mapstructure:"assets"`
}

type IdentityConfig struct {
	DingTalk DingTalkConfig `mapstructure:"dingtalk"`
}

type DingTalkConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
}

// Enabled reports whether DingTalk credentials are configured.
func (c DingTalkConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// I18nConfig holds translations for fields whose meta carries a labelKey or
// placeholderKey. Messages is keyed by locale, then message key.
type I18nConfig struct {
	DefaultLocale string                       `mapstructure:"default_locale"`
	Messages      map[string]map[string]string `mapstructure:"messages"`
}

// Locale returns requested, or the default locale when requested is blank.
func (c I18nConfig) Locale(requested string) string {
	if locale := strings.TrimSpace(requested); locale != "" {
		return locale
	}
	return strings.TrimSpace(c.DefaultLocale)
}

// Translator exposes Messages as a render.Translator, or nil when no messages
// are configured. Viper folds keys to lower case, so locales and message keys
// match case-insensitively.
func (c I18nConfig) Translator() render.Translator {
	if len(c.Messages) == 0 {
		return nil
	}
	catalog := make(render.Catalog, len(c.Messages))
	for locale, messages := range c.Messages {
		folded := make(map[string]string, len(messages))
		for key, msg := range messages {
			folded[strings.ToLower(key)] = msg
		}
		catalog[strings.ToLower(locale)] = folded
	}
	return foldedCatalog{catalog}
}

type foldedCatalog struct {
	catalog render.Catalog
}

func (f foldedCatalog) Translate(locale, key string, args ...any) (string, error) {
	return f.catalog.Translate(strings.ToLower(strings.TrimSpace(locale)), strings.ToLower(key), args...)
}

// Manifest converts the inline theme into a go-theme manifest, or nil when
// no theme is configured.
func (c ThemeConfig) Manifest() *theme.Manifest {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil
	}
	manifest := &theme.Manifest{
		Name:      name,
		Tokens:    c.Tokens,
		Templates: c.Templates,
		Assets:    theme.Assets{Prefix: c.Assets.Prefix, Files: c.Assets.Files},
	}
	if len(c.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(c.Variants))
		for key, variant := range c.Variants {
			manifest.Variants[key] = theme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    theme.Assets{Prefix: variant.Assets.Prefix, Files: variant.Assets.Files},
			}
		}
	}
	return manifest
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Driver: StorageMemory, Path: "data/formbuilder.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads settings. With an explicit path the file must exist; otherwise
// formbuilder.yaml is looked up in the working directory and a missing file
// is not an error.
func Load(path string) (Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("config: storage.path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Forms.Watch && strings.TrimSpace(c.Forms.Dir) == "" {
		return errors.New("config: forms.watch needs forms.dir")
	}
	if strings.TrimSpace(c.Theme.Variant) != "" && strings.TrimSpace(c.Theme.Name) == "" {
		return errors.New("config: theme.variant needs theme.name")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server::addr", cfg.Server.Addr)
	v.SetDefault("storage::driver", cfg.Storage.Driver)
	v.SetDefault("storage::path", cfg.Storage.Path)
	v.SetDefault("forms::dir", cfg.Forms.Dir)
	v.SetDefault("forms::watch", cfg.Forms.Watch)
	v.SetDefault("log::level", cfg.Log.Level)
	v.SetDefault("log::format", cfg.Log.Format)
	v.SetDefault("theme::name", cfg.Theme.Name)
	v.SetDefault("theme::variant", cfg.Theme.Variant)
	v.SetDefault("identity::dingtalk::client_id", "")
	v.SetDefault("identity::dingtalk::client_secret", "")
	v.SetDefault("identity::dingtalk::base_url", "")
	v.SetDefault("i18n::default_locale", cfg.I18n.DefaultLocale)
}

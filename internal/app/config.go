package app

import (
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Storage StorageConfig
	Log     LogConfig
}

// StorageConfig selects where the catalog and the cart are kept.
type StorageConfig struct {
	Backend     string `default:"file" usage:"Storage backend: file or postgres"`
	CatalogPath string `default:"products.json" usage:"Catalog file (gzip-compressed when ending in .gz)" flag:"catalog-path"`
	CartPath    string `default:"cart.json" usage:"Cart file (gzip-compressed when ending in .gz)" flag:"cart-path"`
	DatabaseURL string `usage:"PostgreSQL connection URL (KART_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// LogConfig controls the application logger. Logs go to a file by default so
// they do not interleave with the menu.
type LogConfig struct {
	Level  string `default:"info" usage:"Log level: debug, info, warn or error"`
	Output string `default:"kart.log" usage:"Log output: stderr, stdout or a file path"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and the given command-line arguments. Flags are not parsed when args
// is nil.
func LoadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		SkipFlags: args == nil,
		Args:      args,
		Files:     []string{"kart.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults falls back to the conventional DATABASE_URL variable.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.CatalogPath == "" || c.Storage.CartPath == "" {
			return errors.New("catalog and cart paths are required for the file backend")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set KART_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

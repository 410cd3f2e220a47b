package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Store backends.
const (
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendJSONFile = "jsonfile"
	BackendMemory   = "memory"
)

// DefaultSecretName is the Key Vault secret holding the connection string.
const DefaultSecretName = "cosmosconnectionstring"

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Importer ImporterConfig    `yaml:"importer"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Importer.Validate(); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// StaticDir, when set, is served as a single-page front end.
	StaticDir string `yaml:"static_dir"`
	// Heartbeat is the idle ping interval of the event stream.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Heartbeat, validation.Min(time.Duration(0))),
	)
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Mongo    MongoConfig    `yaml:"mongo"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	JSONFile JSONFileConfig `yaml:"jsonfile"`
}

// Validate validates the store configuration; only the selected backend's
// section must be complete.
func (c *StoreConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendMongo, BackendSQLite, BackendJSONFile, BackendMemory)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case BackendMongo:
		return c.Mongo.Validate()
	case BackendSQLite:
		return c.SQLite.Validate()
	case BackendJSONFile:
		return c.JSONFile.Validate()
	}
	return nil
}

// MongoConfig configures the MongoDB-compatible backend. The connection
// string is taken from URI or, when URI is empty, from the secret store.
type MongoConfig struct {
	URI            string         `yaml:"uri"`
	Database       string         `yaml:"database"`
	ConnectTimeout time.Duration  `yaml:"connect_timeout"`
	KeyVault       KeyVaultConfig `yaml:"key_vault"`
}

// Validate validates the mongo configuration.
func (c *MongoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.ConnectTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.KeyVault, validation.When(c.URI == "", validation.By(func(any) error {
			if c.KeyVault.Name == "" {
				return errors.New("uri or key_vault.name is required")
			}
			return c.KeyVault.Validate()
		}))),
	)
}

// KeyVaultConfig names the vault and secret holding the connection string.
type KeyVaultConfig struct {
	Name       string `yaml:"name"`
	SecretName string `yaml:"secret_name"`
}

// Validate validates the key vault configuration.
func (c *KeyVaultConfig) Validate() error {
	if c.SecretName == "" {
		c.SecretName = DefaultSecretName
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.SecretName, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// JSONFileConfig holds the directory of per-collection JSON files.
type JSONFileConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the JSON file configuration.
func (c *JSONFileConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// ImporterConfig tunes the batch importer and the store retry policy.
type ImporterConfig struct {
	Manifest    string        `yaml:"manifest"`
	BatchSize   int           `yaml:"batch_size"`
	Pace        time.Duration `yaml:"pace"`
	BackoffUnit time.Duration `yaml:"backoff_unit"`
	MaxAttempts int           `yaml:"max_attempts"`
	// Watch re-imports manifest sources on change while serving.
	Watch bool `yaml:"watch"`
}

// Validate validates the importer configuration.
func (c *ImporterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Manifest, validation.When(c.Watch, validation.Required)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Pace, validation.Min(time.Duration(0))),
		validation.Field(&c.BackoffUnit, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:      5001,
				Heartbeat: 30 * time.Second,
			},
		},
		Store: StoreConfig{
			Backend: BackendMongo,
			Mongo: MongoConfig{
				Database:       "edupathfinder-cosmosdb-account",
				ConnectTimeout: 20 * time.Second,
				KeyVault:       KeyVaultConfig{SecretName: DefaultSecretName},
			},
			SQLite:   SQLiteConfig{Path: "./edupath.db"},
			JSONFile: JSONFileConfig{Dir: "./data"},
		},
		Importer: ImporterConfig{
			Manifest:    "config/data_files.yaml",
			BatchSize:   100,
			Pace:        10 * time.Second,
			BackoffUnit: time.Second,
			MaxAttempts: 5,
		},
	}
}

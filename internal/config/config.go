package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/report"
	"github.com/spf13/viper"
)

const appName = "lazyreport"

// Config holds all application configuration
type Config struct {
	General  GeneralConfig           `mapstructure:"general"`
	UI       UIConfig                `mapstructure:"ui"`
	Source   SourceConfig            `mapstructure:"source"`
	Postgres models.ConnectionConfig `mapstructure:"postgres"`
	Grid     GridConfig              `mapstructure:"grid"`
	History  HistoryConfig           `mapstructure:"history"`
	Export   ExportConfig            `mapstructure:"export"`
	Log      LogConfig               `mapstructure:"log"`
}

type GeneralConfig struct {
	Report          string `mapstructure:"report"`
	ReportsFile     string `mapstructure:"reports_file"`
	RefreshOnChange bool   `mapstructure:"refresh_on_change"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
}

type SourceConfig struct {
	Kind      models.SourceKind `mapstructure:"kind"`
	URL       string            `mapstructure:"url"`
	User      string            `mapstructure:"user"`
	OrgIDs    []string          `mapstructure:"org_ids"`
	TimeoutMs int               `mapstructure:"timeout_ms"`
	Schema    string            `mapstructure:"schema"`
	RowLimit  int               `mapstructure:"row_limit"`
}

// Timeout returns the request timeout
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

type GridConfig struct {
	TopHeaderRowHeight    int `mapstructure:"top_header_row_height"`
	NestedHeaderRowHeight int `mapstructure:"nested_header_row_height"`
	DataRowHeight         int `mapstructure:"data_row_height"`
	DefaultColumnWidth    int `mapstructure:"default_column_width"`
	GroupIndentWidth      int `mapstructure:"group_indent_width"`
	PixelsPerCell         int `mapstructure:"pixels_per_cell"`
	MaxCellDisplayLength  int `mapstructure:"max_cell_display_length"`
}

// Dimensions converts the grid section to engine sizing
func (g GridConfig) Dimensions() report.Dimensions {
	return report.Dimensions{
		TopHeaderRowHeight:    g.TopHeaderRowHeight,
		NestedHeaderRowHeight: g.NestedHeaderRowHeight,
		DataRowHeight:         g.DataRowHeight,
		DefaultColumnWidth:    g.DefaultColumnWidth,
		GroupIndentWidth:      g.GroupIndentWidth,
		PixelsPerCell:         g.PixelsPerCell,
	}
}

type HistoryConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	MaxEntries        int  `mapstructure:"max_entries"`
	SaveFailedQueries bool `mapstructure:"save_failed_queries"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	d := report.DefaultDimensions()
	return &Config{
		General: GeneralConfig{
			Report:          "Absences",
			RefreshOnChange: true,
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
		},
		Source: SourceConfig{
			Kind:      models.SourceHTTP,
			URL:       "http://localhost:8080",
			TimeoutMs: 30000,
			Schema:    "public",
			RowLimit:  50000,
		},
		Postgres: models.ConnectionConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "prefer",
		},
		Grid: GridConfig{
			TopHeaderRowHeight:    d.TopHeaderRowHeight,
			NestedHeaderRowHeight: d.NestedHeaderRowHeight,
			DataRowHeight:         d.DataRowHeight,
			DefaultColumnWidth:    d.DefaultColumnWidth,
			GroupIndentWidth:      d.GroupIndentWidth,
			PixelsPerCell:         d.PixelsPerCell,
			MaxCellDisplayLength:  100,
		},
		History: HistoryConfig{
			Enabled:           true,
			MaxEntries:        1000,
			SaveFailedQueries: true,
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Log: LogConfig{
			Path:  "lazyreport.log",
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("general.report", d.General.Report)
	v.SetDefault("general.reports_file", d.General.ReportsFile)
	v.SetDefault("general.refresh_on_change", d.General.RefreshOnChange)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("source.kind", string(d.Source.Kind))
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.user", d.Source.User)
	v.SetDefault("source.org_ids", []string{})
	v.SetDefault("source.timeout_ms", d.Source.TimeoutMs)
	v.SetDefault("source.schema", d.Source.Schema)
	v.SetDefault("source.row_limit", d.Source.RowLimit)
	v.SetDefault("postgres.name", d.Postgres.Name)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.database", d.Postgres.Database)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.ssl_mode", d.Postgres.SSLMode)
	v.SetDefault("grid.top_header_row_height", d.Grid.TopHeaderRowHeight)
	v.SetDefault("grid.nested_header_row_height", d.Grid.NestedHeaderRowHeight)
	v.SetDefault("grid.data_row_height", d.Grid.DataRowHeight)
	v.SetDefault("grid.default_column_width", d.Grid.DefaultColumnWidth)
	v.SetDefault("grid.group_indent_width", d.Grid.GroupIndentWidth)
	v.SetDefault("grid.pixels_per_cell", d.Grid.PixelsPerCell)
	v.SetDefault("grid.max_cell_display_length", d.Grid.MaxCellDisplayLength)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("history.save_failed_queries", d.History.SaveFailedQueries)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads config.yaml from the user config directory, the working
// directory or ./config. Environment variables prefixed LAZYREPORT_ override
// file values, e.g. LAZYREPORT_SOURCE_URL.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configDir, err := GetConfigPath(); err == nil {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config")
		}
	}

	return unmarshal(v)
}

// LoadFile reads configuration from one explicit file
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot run with
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case models.SourceHTTP:
		if c.Source.URL == "" {
			return errors.New("source.url is required for the http source")
		}
	case models.SourcePostgres:
		if c.Postgres.Database == "" {
			return errors.New("postgres.database is required for the postgres source")
		}
	default:
		return errors.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	if c.Grid.DataRowHeight <= 0 || c.Grid.PixelsPerCell <= 0 {
		return errors.New("grid row heights and pixels_per_cell must be positive")
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

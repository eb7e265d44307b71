package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "STEAM_FETCHER_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	mongoURIEnv    = "MONGO_URI"
	remoteURLEnv   = "GRID_REMOTE_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Grid     GridConfig     `yaml:"grid"`
	Extract  ExtractConfig  `yaml:"extract"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Sync     SyncConfig     `yaml:"sync"`
}

// LoggingConfig controls console log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GridConfig describes how to reach and drive the compatibility grid.
type GridConfig struct {
	Accessor        string        `yaml:"accessor"` // "rod" or "snapshot"
	URL             string        `yaml:"url"`
	RemoteURL       string        `yaml:"remoteUrl"` // attach to a running Chrome over CDP; empty = launch
	SnapshotDir     string        `yaml:"snapshotDir"`
	GridSelector    string        `yaml:"gridSelector"`
	RowSelector     string        `yaml:"rowSelector"`
	CellSelector    string        `yaml:"cellSelector"`
	FilterSelector  string        `yaml:"filterSelector"`
	NavigateTimeout time.Duration `yaml:"navigateTimeout"`
	ReadyTimeout    time.Duration `yaml:"readyTimeout"`
	LoginWait       time.Duration `yaml:"loginWait"`
	SettleWait      time.Duration `yaml:"settleWait"`
	ScrollWait      time.Duration `yaml:"scrollWait"`
	ScrollAmount    int           `yaml:"scrollAmount"`
}

// ExtractConfig are the knobs of the full-catalog extraction loop.
type ExtractConfig struct {
	CSVPath         string `yaml:"csvPath"`
	BatchInterval   int    `yaml:"batchInterval"`   // flush every N scroll iterations
	StallThreshold  int    `yaml:"stallThreshold"`  // terminate after N no-progress passes
	RowCap          int    `yaml:"rowCap"`          // maximum rows captured per session
	PreScanAttempts int    `yaml:"preScanAttempts"` // scroll attempts to reach the resume target
}

// LookupConfig drives the listed batch lookup.
type LookupConfig struct {
	InputCSV    string `yaml:"inputCsv"`
	OutputCSV   string `yaml:"outputCsv"`
	TitleColumn int    `yaml:"titleColumn"` // column of the search term in the input CSV
}

// DatabaseConfig describes the relational reconciliation target.
type DatabaseConfig struct {
	Driver             string `yaml:"driver"` // "sqlite" or "postgres"
	DSN                string `yaml:"dsn"`
	Table              string `yaml:"table"`
	KeyColumn          string `yaml:"keyColumn"`
	DateColumn         string `yaml:"dateColumn"`
	ContinueOnRowError bool   `yaml:"continueOnRowError"`
}

// MongoConfig describes the document-store sink.
type MongoConfig struct {
	URI        string   `yaml:"uri"`
	Database   string   `yaml:"database"`
	Collection string   `yaml:"collection"`
	Fields     []string `yaml:"fields"` // projected document fields, in order
}

// SyncConfig configures the SQL-fetch → resolve → document-store pipeline.
type SyncConfig struct {
	Query       string `yaml:"query"`
	TitleColumn string `yaml:"titleColumn"` // column holding the title to resolve
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = "config.yaml"
	}

	if data, err := os.ReadFile(path); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v", path, err)
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	if dsn := os.Getenv(databaseDSNEnv); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if uri := os.Getenv(mongoURIEnv); uri != "" {
		cfg.Mongo.URI = uri
	}
	if u := os.Getenv(remoteURLEnv); u != "" {
		cfg.Grid.RemoteURL = u
	}

	return cfg
}

func mergeConfigs(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Grid.Accessor != "" {
		base.Grid.Accessor = override.Grid.Accessor
	}
	if override.Grid.URL != "" {
		base.Grid.URL = override.Grid.URL
	}
	if override.Grid.RemoteURL != "" {
		base.Grid.RemoteURL = override.Grid.RemoteURL
	}
	if override.Grid.SnapshotDir != "" {
		base.Grid.SnapshotDir = override.Grid.SnapshotDir
	}
	if override.Grid.GridSelector != "" {
		base.Grid.GridSelector = override.Grid.GridSelector
	}
	if override.Grid.RowSelector != "" {
		base.Grid.RowSelector = override.Grid.RowSelector
	}
	if override.Grid.CellSelector != "" {
		base.Grid.CellSelector = override.Grid.CellSelector
	}
	if override.Grid.FilterSelector != "" {
		base.Grid.FilterSelector = override.Grid.FilterSelector
	}
	if override.Grid.NavigateTimeout > 0 {
		base.Grid.NavigateTimeout = override.Grid.NavigateTimeout
	}
	if override.Grid.ReadyTimeout > 0 {
		base.Grid.ReadyTimeout = override.Grid.ReadyTimeout
	}
	if override.Grid.LoginWait > 0 {
		base.Grid.LoginWait = override.Grid.LoginWait
	}
	if override.Grid.SettleWait > 0 {
		base.Grid.SettleWait = override.Grid.SettleWait
	}
	if override.Grid.ScrollWait > 0 {
		base.Grid.ScrollWait = override.Grid.ScrollWait
	}
	if override.Grid.ScrollAmount > 0 {
		base.Grid.ScrollAmount = override.Grid.ScrollAmount
	}

	if override.Extract.CSVPath != "" {
		base.Extract.CSVPath = override.Extract.CSVPath
	}
	if override.Extract.BatchInterval > 0 {
		base.Extract.BatchInterval = override.Extract.BatchInterval
	}
	if override.Extract.StallThreshold > 0 {
		base.Extract.StallThreshold = override.Extract.StallThreshold
	}
	if override.Extract.RowCap > 0 {
		base.Extract.RowCap = override.Extract.RowCap
	}
	if override.Extract.PreScanAttempts > 0 {
		base.Extract.PreScanAttempts = override.Extract.PreScanAttempts
	}

	if override.Lookup.InputCSV != "" {
		base.Lookup.InputCSV = override.Lookup.InputCSV
	}
	if override.Lookup.OutputCSV != "" {
		base.Lookup.OutputCSV = override.Lookup.OutputCSV
	}
	if override.Lookup.TitleColumn > 0 {
		base.Lookup.TitleColumn = override.Lookup.TitleColumn
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}
	if override.Database.KeyColumn != "" {
		base.Database.KeyColumn = override.Database.KeyColumn
	}
	if override.Database.DateColumn != "" {
		base.Database.DateColumn = override.Database.DateColumn
	}
	if override.Database.ContinueOnRowError {
		base.Database.ContinueOnRowError = true
	}

	if override.Mongo.URI != "" {
		base.Mongo.URI = override.Mongo.URI
	}
	if override.Mongo.Database != "" {
		base.Mongo.Database = override.Mongo.Database
	}
	if override.Mongo.Collection != "" {
		base.Mongo.Collection = override.Mongo.Collection
	}
	if len(override.Mongo.Fields) > 0 {
		base.Mongo.Fields = override.Mongo.Fields
	}

	if override.Sync.Query != "" {
		base.Sync.Query = override.Sync.Query
	}
	if override.Sync.TitleColumn != "" {
		base.Sync.TitleColumn = override.Sync.TitleColumn
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Grid: GridConfig{
			Accessor:        "rod",
			URL:             "https://checkmydeck.ofdgn.com/all-games?sort=deck-compat-last-change-desc",
			GridSelector:    "div[role='grid']",
			RowSelector:     "div[role='row']",
			CellSelector:    "div[role='gridcell']",
			FilterSelector:  "input[placeholder='Type to filter']",
			NavigateTimeout: 60 * time.Second,
			ReadyTimeout:    30 * time.Second,
			LoginWait:       120 * time.Second,
			SettleWait:      3 * time.Second,
			ScrollWait:      10 * time.Second,
			ScrollAmount:    500,
		},
		Extract: ExtractConfig{
			CSVPath:         "scraped_data.csv",
			BatchInterval:   10,
			StallThreshold:  3,
			RowCap:          200000,
			PreScanAttempts: 100,
		},
		Lookup: LookupConfig{
			OutputCSV: "search_results.csv",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			DSN:        "steamos.db",
			Table:      "SteamOSHandheldInfo",
			KeyColumn:  "Title",
			DateColumn: "LastChange",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "steamos",
			Collection: "compat_results",
			Fields:     []string{"TitleName", "TitleID", "PublisherName", "ProductID", "PublisherType"},
		},
		Sync: SyncConfig{
			TitleColumn: "TitleName",
		},
	}
}

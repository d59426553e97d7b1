package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// Supported tabular backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

const (
	defaultStationConfigPath = "station_config.json"
	defaultCredentialsPath   = "credentials/google-service-account.json"
	defaultNDBCBaseURL       = "https://www.ndbc.noaa.gov"
)

// Config holds all job settings, populated from environment variables and the
// station config document.
type Config struct {
	Stations         []string
	SheetBackend     string
	SheetDestination string // spreadsheet id, workbook path, or database path
	CredentialsFile  string

	NDBCBaseURL     string
	FeedFormat      domain.Feed
	IncludeSpectral bool
	FetchTimeout    time.Duration

	RawColumns []string
	Thresholds domain.Thresholds
	Tabs       domain.Tabs

	LogLevel        string
	LogFormat       string
	RunInterval     time.Duration // zero runs once and exits
	HTTPAddr        string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	AlertKafkaEnabled bool
	AlertKafkaBrokers []string
	AlertKafkaTopic   string
}

// StationFile is the station config document. JSON is valid YAML, so the
// historical station_config.json parses unchanged. Either station_id or
// stations may hold one id or a list.
type StationFile struct {
	StationID     stationIDs                `yaml:"station_id"`
	Stations      stationIDs                `yaml:"stations"`
	SpreadsheetID string                    `yaml:"spreadsheet_id"`
	Fields        []string                  `yaml:"fields"`
	Thresholds    domain.ThresholdOverrides `yaml:"thresholds"`
	Tabs          domain.Tabs               `yaml:"tabs"`
}

// IDs returns the configured stations, stations before station_id, with
// blanks and duplicates removed.
func (f StationFile) IDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range append(append([]string{}, f.Stations...), f.StationID...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// stationIDs accepts a scalar or a sequence. Numeric ids such as 41117 are
// kept as written.
type stationIDs []string

func (s *stationIDs) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = stationIDs{n.Value}
		return nil
	case yaml.SequenceNode:
		ids := make(stationIDs, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: station id must be a scalar", c.Line)
			}
			ids = append(ids, c.Value)
		}
		*s = ids
		return nil
	default:
		return fmt.Errorf("line %d: expected a station id or a list of ids", n.Line)
	}
}

// Load reads configuration from environment variables and the station config
// document, applying defaults where unset. Every validation failure is a
// *domain.ConfigError.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, &domain.ConfigError{Key: "SHUTDOWN_TIMEOUT", Err: err}
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "20s", false)
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}
	includeSpectral, err := parseBool("FEED_INCLUDE_SPECTRAL", true)
	if err != nil {
		return nil, err
	}

	file, err := loadStationFile()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SheetBackend:     strings.ToLower(sharedcfg.EnvOrDefault("SHEET_BACKEND", BackendSheets)),
		SheetDestination: firstNonEmpty(os.Getenv("SHEET_DESTINATION"), os.Getenv("GOOGLE_SHEET_ID"), file.SpreadsheetID),
		CredentialsFile:  sharedcfg.EnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", defaultCredentialsPath),

		NDBCBaseURL:     strings.TrimRight(sharedcfg.EnvOrDefault("NDBC_BASE_URL", defaultNDBCBaseURL), "/"),
		IncludeSpectral: includeSpectral,
		FetchTimeout:    fetchTimeout,

		Thresholds: domain.DefaultThresholds().Merge(file.Thresholds),
		Tabs:       domain.DefaultTabs().Merge(file.Tabs),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		RunInterval:     runInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		AlertKafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("ALERT_KAFKA_BROKERS")),
		AlertKafkaTopic:   sharedcfg.EnvOrDefault("ALERT_KAFKA_TOPIC", "swell-alerts"),
	}

	cfg.AlertKafkaEnabled, err = parseBool("ALERT_KAFKA_ENABLED", len(cfg.AlertKafkaBrokers) > 0)
	if err != nil {
		return nil, err
	}

	switch format := strings.ToLower(sharedcfg.EnvOrDefault("FEED_FORMAT", "text")); format {
	case "text", "txt":
		cfg.FeedFormat = domain.FeedStandard
	case "json":
		cfg.FeedFormat = domain.FeedJSON
	default:
		return nil, &domain.ConfigError{Key: "FEED_FORMAT", Err: fmt.Errorf("unknown format %q, want text or json", format)}
	}

	cfg.Stations = file.IDs()
	if len(cfg.Stations) == 0 {
		cfg.Stations = splitStations(os.Getenv("NDBC_STATION"))
	}

	cfg.RawColumns = domain.RawColumns
	if len(file.Fields) > 0 {
		cfg.RawColumns = file.Fields
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Stations) == 0 {
		return &domain.ConfigError{Key: "stations", Err: errors.New("no station configured: set STATION_CONFIG_JSON, station_config.json, or NDBC_STATION")}
	}
	switch c.SheetBackend {
	case BackendSheets, BackendXLSX, BackendSQLite:
	default:
		return &domain.ConfigError{Key: "SHEET_BACKEND", Err: fmt.Errorf("unknown backend %q", c.SheetBackend)}
	}
	if c.SheetDestination == "" {
		return &domain.ConfigError{Key: "SHEET_DESTINATION", Err: errors.New("destination is required: set SHEET_DESTINATION, GOOGLE_SHEET_ID, or spreadsheet_id")}
	}
	for _, f := range c.RawColumns {
		if !domain.IsKnownColumn(f) {
			return &domain.ConfigError{Key: "fields", Err: fmt.Errorf("unknown column %q", f)}
		}
	}
	if c.Thresholds.DirectionMin > c.Thresholds.DirectionMax {
		return &domain.ConfigError{Key: "thresholds", Err: fmt.Errorf("direction_min %.0f is above direction_max %.0f", c.Thresholds.DirectionMin, c.Thresholds.DirectionMax)}
	}
	if c.AlertKafkaEnabled && len(c.AlertKafkaBrokers) == 0 {
		return &domain.ConfigError{Key: "ALERT_KAFKA_BROKERS", Err: errors.New("ALERT_KAFKA_ENABLED is true but no brokers are set")}
	}
	if c.AlertKafkaEnabled && c.AlertKafkaTopic == "" {
		return &domain.ConfigError{Key: "ALERT_KAFKA_TOPIC", Err: errors.New("topic is required")}
	}
	return nil
}

// loadStationFile reads STATION_CONFIG_JSON, else the file at
// STATION_CONFIG_PATH. A missing default file is not an error; a missing
// explicitly named file is.
func loadStationFile() (StationFile, error) {
	var file StationFile

	if raw := os.Getenv("STATION_CONFIG_JSON"); strings.TrimSpace(raw) != "" {
		if err := yaml.Unmarshal([]byte(raw), &file); err != nil {
			return file, &domain.ConfigError{Key: "STATION_CONFIG_JSON", Err: err}
		}
		return file, nil
	}

	path, explicit := os.LookupEnv("STATION_CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultStationConfigPath
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return file, nil
	}
	if err != nil {
		return file, &domain.ConfigError{Key: "STATION_CONFIG_PATH", Err: err}
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, &domain.ConfigError{Key: "STATION_CONFIG_PATH", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return file, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, &domain.ConfigError{Key: key, Err: errors.New("must be a positive duration")}
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, &domain.ConfigError{Key: key, Err: fmt.Errorf("invalid boolean %q", s)}
	}
	return b, nil
}

// splitStations parses a comma-separated station list, dropping blanks and
// repeats.
func splitStations(s string) []string {
	return StationFile{Stations: strings.Split(s, ",")}.IDs()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

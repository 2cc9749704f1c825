package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Config represents the resolved application configuration.
// It is built once by Resolve and never modified afterwards.
type Config struct {
	Hue          HueConfig
	Targets      Targets
	Interval     int // minutes between the start of two ON phases
	Duration     int // minutes the devices stay ON
	Debug        bool
	Log          LogConfig
	Ledger       LedgerConfig
	Health       HealthConfig
	RateLimitRPS float64
	ConfigPath   string
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge   string
	Username string
}

// Targets holds the four identifier lists used to pick devices.
type Targets struct {
	DeviceIDs   []string
	DeviceNames []string
	RoomIDs     []string
	RoomNames   []string
}

// Empty reports whether no identifier of any kind was supplied.
func (t Targets) Empty() bool {
	return len(t.DeviceIDs) == 0 && len(t.DeviceNames) == 0 && len(t.RoomIDs) == 0 && len(t.RoomNames) == 0
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string
	JSON  bool
}

// LedgerConfig contains transition ledger settings
type LedgerConfig struct {
	Path      string   // empty disables the ledger
	Retention Duration // entries older than this are pruned on startup
}

// HealthConfig contains health check server settings
type HealthConfig struct {
	Addr string // empty disables the server
}

// OnPeriod returns how long devices stay on in each cycle.
func (c *Config) OnPeriod() time.Duration {
	return time.Duration(c.Duration) * time.Minute
}

// OffPeriod returns how long devices stay off in each cycle.
// The value is negative when Duration exceeds Interval.
func (c *Config) OffPeriod() time.Duration {
	return time.Duration(c.Interval-c.Duration) * time.Minute
}

// Warnings returns non-fatal configuration problems worth logging at startup.
func (c *Config) Warnings() []string {
	if c.Debug {
		return nil
	}
	var warnings []string
	if c.Duration >= c.Interval {
		warnings = append(warnings, fmt.Sprintf(
			"DURATION (%d) is not less than INTERVAL (%d), devices will be switched off and straight back on",
			c.Duration, c.Interval))
	}
	return warnings
}

// ValidationError is a fatal configuration problem.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

const (
	defaultLogLevel     = "info"
	defaultRateLimitRPS = 10.0
	defaultRetention    = Duration(30 * 24 * time.Hour)
)

// fileConfig is the optional YAML layer, consulted after flags and environment.
type fileConfig struct {
	Bridge   string `yaml:"bridge"`
	Username string `yaml:"username"`
	Devices  struct {
		IDs   List `yaml:"ids"`
		Names List `yaml:"names"`
	} `yaml:"devices"`
	Rooms struct {
		IDs   List `yaml:"ids"`
		Names List `yaml:"names"`
	} `yaml:"rooms"`
	Interval string `yaml:"interval"`
	Duration string `yaml:"duration"`
	Log      struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
	Ledger struct {
		Path      string   `yaml:"path"`
		Retention Duration `yaml:"retention"`
	} `yaml:"ledger"`
	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// flagValues holds raw command-line values before merging.
type flagValues struct {
	configPath  string
	bridge      string
	username    string
	deviceIDs   string
	deviceNames string
	roomIDs     string
	roomNames   string
	interval    string
	duration    string
	debug       bool
	logLevel    string
	logJSON     string
	ledgerPath  string
	healthAddr  string
	rateLimit   string
}

// newFlagSet returns the command-line flag set bound to v.
func newFlagSet(v *flagValues, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("lightcycle", flag.ContinueOnError)
	fs.SetOutput(output)

	// Support both -c and --config for config path
	fs.StringVar(&v.configPath, "config", "", "Path to optional YAML configuration file")
	fs.StringVar(&v.configPath, "c", "", "Path to optional YAML configuration file (shorthand)")
	fs.StringVar(&v.bridge, "bridge-ip", "", "IP address of the Hue bridge")
	fs.StringVar(&v.username, "username", "", "Application key of the pre-paired Hue bridge")
	fs.StringVar(&v.deviceIDs, "device-ids", "", "Comma-separated list of device IDs to control")
	fs.StringVar(&v.deviceNames, "device-names", "", "Comma-separated list of device names to control")
	fs.StringVar(&v.roomIDs, "room-ids", "", "Comma-separated list of room IDs to control")
	fs.StringVar(&v.roomNames, "room-names", "", "Comma-separated list of room names to control")
	fs.StringVar(&v.interval, "interval", "", "Interval in minutes between ON cycles")
	fs.StringVar(&v.duration, "duration", "", "Duration in minutes to keep devices ON")
	fs.BoolVar(&v.debug, "debug", false, "Log details of all lights and exit")
	fs.StringVar(&v.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&v.logJSON, "log-json", "", "Emit JSON logs (true/false)")
	fs.StringVar(&v.ledgerPath, "ledger", "", "Path to SQLite transition ledger (empty = disabled)")
	fs.StringVar(&v.healthAddr, "health-addr", "", "Listen address for health endpoints (empty = disabled)")
	fs.StringVar(&v.rateLimit, "rate-limit", "", "Maximum bridge commands per second")
	return fs
}

// Resolve merges command-line arguments, environment variables and the optional
// YAML file into a validated Config. Flags win over environment variables, which
// win over the file. Any returned *ValidationError is fatal.
func Resolve(args []string, env LookupFunc) (*Config, error) {
	return resolve(args, env, os.Stderr)
}

func resolve(args []string, env LookupFunc, usage io.Writer) (*Config, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}

	var v flagValues
	fs := newFlagSet(&v, usage)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var file fileConfig
	path := first(v.configPath, lookup(env, "LIGHTCYCLE_CONFIG"))
	if path != "" {
		loaded, err := loadFile(path, env)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file = *loaded
	}

	cfg := &Config{
		ConfigPath: path,
		Debug:      v.debug,
		Hue: HueConfig{
			Bridge:   first(v.bridge, lookup(env, "BRIDGE_IP"), file.Bridge),
			Username: first(v.username, lookup(env, "HUE_USERNAME"), file.Username),
		},
		Targets: Targets{
			DeviceIDs:   pickList(v.deviceIDs, lookup(env, "DEVICE_IDS"), file.Devices.IDs),
			DeviceNames: pickList(v.deviceNames, lookup(env, "DEVICE_NAMES"), file.Devices.Names),
			RoomIDs:     pickList(v.roomIDs, lookup(env, "ROOM_IDS"), file.Rooms.IDs),
			RoomNames:   pickList(v.roomNames, lookup(env, "ROOM_NAMES"), file.Rooms.Names),
		},
		Log: LogConfig{
			Level: strings.ToLower(first(v.logLevel, lookup(env, "LOG_LEVEL"), file.Log.Level, defaultLogLevel)),
			JSON:  file.Log.JSON,
		},
		Ledger: LedgerConfig{
			Path:      first(v.ledgerPath, lookup(env, "LEDGER_PATH"), file.Ledger.Path),
			Retention: file.Ledger.Retention,
		},
		Health: HealthConfig{
			Addr: first(v.healthAddr, lookup(env, "HEALTH_ADDR"), file.Health.Addr),
		},
		RateLimitRPS: file.RateLimitRPS,
	}

	interval := first(v.interval, lookup(env, "INTERVAL"), file.Interval)
	duration := first(v.duration, lookup(env, "DURATION"), file.Duration)

	if err := validate(cfg, interval, duration); err != nil {
		return nil, err
	}

	// Debug runs only need the bridge, so malformed extras fall back to defaults there
	err := applyExtras(cfg,
		first(v.logJSON, lookup(env, "LOG_JSON")),
		first(v.rateLimit, lookup(env, "RATE_LIMIT_RPS")))
	if err != nil && !cfg.Debug {
		return nil, err
	}

	// Defaults
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaultRateLimitRPS
	}
	if cfg.Ledger.Retention <= 0 {
		cfg.Ledger.Retention = defaultRetention
	}
	return cfg, nil
}

// applyExtras parses the settings that sit outside the ordered validation rules.
func applyExtras(cfg *Config, logJSON, rateLimit string) error {
	if logJSON != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(logJSON))
		if err != nil {
			return &ValidationError{Field: "log_json", Msg: "Error: LOG_JSON must be a boolean."}
		}
		cfg.Log.JSON = b
	}
	if rateLimit != "" {
		rps, err := strconv.ParseFloat(strings.TrimSpace(rateLimit), 64)
		if err != nil || rps <= 0 {
			return &ValidationError{Field: "rate_limit_rps", Msg: "Error: RATE_LIMIT_RPS must be a positive number."}
		}
		cfg.RateLimitRPS = rps
	}
	return nil
}

// validate applies the ordered validation rules and fills in the schedule.
func validate(cfg *Config, interval, duration string) error {
	if cfg.Hue.Bridge == "" {
		return &ValidationError{Field: "bridge_ip",
			Msg: "Error: BRIDGE_IP is required (set as --bridge-ip or environment variable)."}
	}
	if cfg.Debug {
		return nil
	}
	if cfg.Targets.Empty() {
		return &ValidationError{Field: "targets",
			Msg: "Error: At least one of DEVICE_IDS, DEVICE_NAMES, ROOM_IDS, or ROOM_NAMES must be provided unless using --debug."}
	}
	if interval == "" {
		return &ValidationError{Field: "interval",
			Msg: "Error: INTERVAL is required (set as --interval or environment variable)."}
	}
	if duration == "" {
		return &ValidationError{Field: "duration",
			Msg: "Error: DURATION is required (set as --duration or environment variable)."}
	}

	i, errI := strconv.Atoi(strings.TrimSpace(interval))
	d, errD := strconv.Atoi(strings.TrimSpace(duration))
	if errI != nil || errD != nil {
		return &ValidationError{Field: "interval",
			Msg: "Error: INTERVAL and DURATION must be integers."}
	}
	if i <= 0 || d <= 0 {
		return &ValidationError{Field: "interval",
			Msg: "Error: INTERVAL and DURATION must be positive."}
	}

	cfg.Interval = i
	cfg.Duration = d
	return nil
}

// SplitList splits a comma-separated value into trimmed, non-empty elements.
// An empty input yields a nil slice.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pickList(flagValue, envValue string, fileValue List) []string {
	if raw := first(flagValue, envValue); raw != "" {
		return SplitList(raw)
	}
	if len(fileValue) == 0 {
		return nil
	}
	return []string(fileValue)
}

func lookup(env LookupFunc, key string) string {
	v, _ := env(key)
	return v
}

// first returns the first non-empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// List is a YAML string list that also accepts a comma-separated scalar.
type List []string

// UnmarshalYAML implements yaml.Unmarshaler for List
func (l *List) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = SplitList(value.Value)
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	var out List
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*l = out
	return nil
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func loadFile(path string, env LookupFunc) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data), env)

	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string, env LookupFunc) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := lookup(env, parts[1]); val != "" {
			return val
		}
		return defaultVal
	})
}

package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/stringutils"
)

const (
	ClientTransmission = "transmission"
	ClientQBittorrent  = "qbittorrent"
	ClientDeluge       = "deluge"
)

// ErrInvalidConfig is returned when thresholds or connection settings are unusable.
// Nothing has been sent to the torrent client when it is returned.
var ErrInvalidConfig = errors.New("invalid configuration")

type ClientConfig struct {
	Type     string        `yaml:"type" koanf:"type"`
	URL      string        `yaml:"url" koanf:"url"`
	Port     int           `yaml:"port" koanf:"port"`
	User     string        `yaml:"user" koanf:"user"`
	Password string        `yaml:"password" koanf:"password"`
	Timeout  time.Duration `yaml:"timeout" koanf:"timeout"`

	// deluge only
	V2 bool `yaml:"v2" koanf:"v2"`
}

type Policy struct {
	MinAge              int           `yaml:"min_age" koanf:"min_age"`
	MaxAge              int           `yaml:"max_age" koanf:"max_age"`
	DeleteRatio         float64       `yaml:"delete_ratio" koanf:"delete_ratio"`
	Mountpoint          string        `yaml:"mountpoint" koanf:"mountpoint"`
	MountpointThreshold int64         `yaml:"mountpoint_threshold" koanf:"mountpoint_threshold"`
	DryRun              bool          `yaml:"dry_run" koanf:"dry_run"`
	EvictDelay          time.Duration `yaml:"evict_delay" koanf:"evict_delay"`
	MaxEvictions        int           `yaml:"max_evictions" koanf:"max_evictions"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" koanf:"textfile"`
}

type Configuration struct {
	Client        ClientConfig        `yaml:"client" koanf:"client"`
	Policy        Policy              `yaml:"policy" koanf:"policy"`
	Filters       FilterConfiguration `yaml:"filters" koanf:"filters"`
	Notifications NotificationsConfig `yaml:"notifications" koanf:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics" koanf:"metrics"`
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	EnvPrefix = "SEEDGC__"
	Config    *Configuration

	// FlagKeys maps command line flags onto configuration keys.
	FlagKeys = map[string]string{
		"client":              "client.type",
		"url":                 "client.url",
		"port":                "client.port",
		"user":                "client.user",
		"password":            "client.password",
		"timeout":             "client.timeout",
		"deluge-v2":           "client.v2",
		"min-age":             "policy.min_age",
		"max-age":             "policy.max_age",
		"delete-ratio":        "policy.delete_ratio",
		"mountpoint":          "policy.mountpoint",
		"mountpoint-treshold": "policy.mountpoint_threshold",
		"dryrun":              "policy.dry_run",
		"evict-delay":         "policy.evict_delay",
		"max-evictions":       "policy.max_evictions",
		"metrics-textfile":    "metrics.textfile",
	}

	defaults = map[string]interface{}{
		"client.type":                 ClientTransmission,
		"client.url":                  "localhost",
		"client.port":                 9091,
		"client.timeout":              "30s",
		"policy.min_age":              2,
		"policy.max_age":              90,
		"policy.delete_ratio":         2.0,
		"policy.mountpoint":           "/",
		"policy.mountpoint_threshold": 100,
		"policy.dry_run":              false,
		"policy.evict_delay":          "2s",
		"policy.max_evictions":        0,
		"notifications.detailed":      true,
	}

	// Internal
	log = logger.GetLogger("cfg")
)

/* Public */

func Init(configFilePath string, flags *pflag.FlagSet) error {
	cfg, err := Load(configFilePath, flags)
	if err != nil {
		return err
	}

	cfgPath = configFilePath
	Config = cfg
	return nil
}

// Load layers defaults, the optional config file, SEEDGC__ environment
// variables and explicitly set flags, in that order, and validates the result.
func Load(configFilePath string, flags *pflag.FlagSet) (*Configuration, error) {
	k := koanf.New(Delimiter)

	// defaults
	if err := k.Load(confmap.Provider(defaults, Delimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// config file
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load file: %w", err)
		}
	}

	// environment variables
	if err := k.Load(env.Provider(EnvPrefix, Delimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// flags set on the command line
	if flags != nil {
		if err := k.Load(confmap.Provider(changedFlags(flags), Delimiter), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := new(Configuration)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	cfg.Client.Type = strings.ToLower(strings.TrimSpace(cfg.Client.Type))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Configuration) Validate() error {
	var problems []string

	switch c.Client.Type {
	case ClientTransmission, ClientQBittorrent, ClientDeluge:
	default:
		problems = append(problems, fmt.Sprintf("unsupported client type %q", c.Client.Type))
	}

	if strings.TrimSpace(c.Client.URL) == "" {
		problems = append(problems, "client url must be set")
	}
	if c.Client.Port < 1 || c.Client.Port > 65535 {
		problems = append(problems, fmt.Sprintf("client port %d out of range", c.Client.Port))
	}
	if c.Client.Timeout < 0 {
		problems = append(problems, "client timeout must not be negative")
	}

	p := c.Policy
	if p.MinAge < 0 {
		problems = append(problems, fmt.Sprintf("min age %d must not be negative", p.MinAge))
	}
	if p.MaxAge < 0 {
		problems = append(problems, fmt.Sprintf("max age %d must not be negative", p.MaxAge))
	}
	if math.IsNaN(p.DeleteRatio) {
		problems = append(problems, "delete ratio must be a number")
	} else if p.DeleteRatio < 0 {
		problems = append(problems, fmt.Sprintf("delete ratio %.2f must not be negative", p.DeleteRatio))
	}
	if p.MountpointThreshold < 0 {
		problems = append(problems, fmt.Sprintf("mountpoint threshold %d must not be negative", p.MountpointThreshold))
	}
	if strings.TrimSpace(p.Mountpoint) == "" {
		problems = append(problems, "mountpoint must be set")
	}
	if p.EvictDelay < 0 {
		problems = append(problems, "evict delay must not be negative")
	}
	if p.MaxEvictions < 0 {
		problems = append(problems, "max evictions must not be negative")
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

func ShowUsing() {
	if cfgPath == "" {
		return
	}

	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), cfgPath)
}

/* Private */

// SEEDGC__POLICY__MIN_AGE -> policy.min_age
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", Delimiter)
}

func changedFlags(flags *pflag.FlagSet) map[string]interface{} {
	values := make(map[string]interface{})

	flags.Visit(func(f *pflag.Flag) {
		key, ok := FlagKeys[f.Name]
		if !ok {
			return
		}

		values[key] = f.Value.String()
	})

	return values
}

package config

import (
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	envPrefix       = "LOCALCHAT_"
	defaultWordWrap = 80
)

// Config is the full runtime configuration. Zero values never reach the
// application: Default fills every field and Validate rejects broken ones.
type Config struct {
	Dev     bool   `toml:"dev"`
	LogPath string `toml:"log_path"`

	Server    ServerConfig    `toml:"server"`
	Inference InferenceConfig `toml:"inference"`
	UI        UIConfig        `toml:"ui"`
}

type ServerConfig struct {
	// Addr is where /api/chat listens; the TUI talks to it over loopback.
	Addr string `toml:"addr"`
}

type InferenceConfig struct {
	BaseURL      string   `toml:"base_url"`
	ChatPath     string   `toml:"chat_path"`
	ModelsPath   string   `toml:"models_path"`
	Model        string   `toml:"model"`
	SystemPrompt string   `toml:"system_prompt"`
	Timeout      Duration `toml:"timeout"`
}

type UIConfig struct {
	Markdown bool `toml:"markdown"`
	WordWrap int  `toml:"word_wrap"`
}

// Duration lets TOML files write timeouts as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
		Inference: InferenceConfig{
			BaseURL:      "http://localhost:12434/engines/llama.cpp",
			ChatPath:     "/v1/chat/completions",
			ModelsPath:   "/v1/models",
			Model:        "ai/gemma3",
			SystemPrompt: "You are a helpful assistant.",
		},
		UI: UIConfig{
			Markdown: true,
			WordWrap: defaultWordWrap,
		},
	}
}

// Load layers defaults, the optional TOML file at path, .env and LOCALCHAT_*
// environment variables. Flags are applied afterwards by the caller.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaultWordWrap
	}
	return cfg, nil
}

// Encode writes the config as TOML in the same layout Load reads.
func (c *Config) Encode(w io.Writer) error {
	return errors.Wrap(toml.NewEncoder(w).Encode(c), "failed to encode config")
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s%s", envPrefix, key)
		}
		*dst = b
		return nil
	}

	if err := boolean("DEV", &c.Dev); err != nil {
		return err
	}
	str("LOG_PATH", &c.LogPath)
	str("ADDR", &c.Server.Addr)
	str("INFERENCE_URL", &c.Inference.BaseURL)
	str("MODEL", &c.Inference.Model)
	str("SYSTEM_PROMPT", &c.Inference.SystemPrompt)

	if v, ok := lookup(envPrefix + "INFERENCE_TIMEOUT"); ok && v != "" {
		if err := c.Inference.Timeout.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}
	if err := boolean("MARKDOWN", &c.UI.Markdown); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return errors.Wrapf(err, "invalid server address %q", c.Server.Addr)
	}

	u, err := url.Parse(c.Inference.BaseURL)
	if err != nil {
		return errors.Wrapf(err, "invalid inference url %q", c.Inference.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("inference url %q must be http or https", c.Inference.BaseURL)
	}
	if strings.TrimSpace(c.Inference.Model) == "" {
		return errors.New("inference model must not be empty")
	}
	if c.Inference.Timeout.Duration < 0 {
		return errors.New("inference timeout must not be negative")
	}
	if c.UI.WordWrap < 0 {
		return errors.New("ui word_wrap must not be negative")
	}
	return nil
}

// ServerURL is the base URL the TUI uses to reach its own server.
func (c *Config) ServerURL() string {
	host, port, err := net.SplitHostPort(c.Server.Addr)
	if err != nil {
		return "http://" + c.Server.Addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

package config

import "github.com/spf13/cobra"

// Flags holds the command-line overrides. Only flags the user actually set
// replace values from the file and environment.
type Flags struct {
	ConfigPath   string
	Dev          bool
	LogPath      string
	Addr         string
	Model        string
	InferenceURL string
}

func (f *Flags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.ConfigPath, "config", "", "Path to a TOML config file")
	cmd.PersistentFlags().BoolVar(&f.Dev, "dev", false, "Development mode")
	cmd.PersistentFlags().StringVar(&f.LogPath, "logPath", "", "Path to save the log file")
	cmd.PersistentFlags().StringVar(&f.Addr, "addr", "", "Address of the chat server")
	cmd.PersistentFlags().StringVar(&f.Model, "model", "", "Model id sent to the inference server")
	cmd.PersistentFlags().StringVar(&f.InferenceURL, "inference-url", "", "Base URL of the inference server")
}

// Resolve loads the config and applies flags on top of it.
func (f *Flags) Resolve(cmd *cobra.Command) (*Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dev") {
		cfg.Dev = f.Dev
	}
	if flags.Changed("logPath") {
		cfg.LogPath = f.LogPath
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = f.Addr
	}
	if flags.Changed("model") {
		cfg.Inference.Model = f.Model
	}
	if flags.Changed("inference-url") {
		cfg.Inference.BaseURL = f.InferenceURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/groqb/executor/httpexec"
)

// EnvPrefix prefixes every environment variable, e.g. GROQB_PROJECT_ID.
const EnvPrefix = "GROQB"

// Config is the dataset connection used by `groqb query`.
type Config struct {
	ProjectID   string  `mapstructure:"project_id"`
	Dataset     string  `mapstructure:"dataset"`
	APIVersion  string  `mapstructure:"api_version"`
	Token       string  `mapstructure:"token"`
	UseCDN      bool    `mapstructure:"use_cdn"`
	BaseURL     string  `mapstructure:"base_url"`
	Perspective string  `mapstructure:"perspective"`
	RateLimit   float64 `mapstructure:"rate_limit"` // Requests per second; 0 disables limiting.
}

// configFlags maps flag names to config keys.
var configFlags = map[string]string{
	"project":     "project_id",
	"dataset":     "dataset",
	"api-version": "api_version",
	"cdn":         "use_cdn",
	"base-url":    "base_url",
	"perspective": "perspective",
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("project", "", "project id")
	f.String("dataset", "", "dataset name")
	f.String("api-version", httpexec.DefaultAPIVersion, "API version date")
	f.Bool("cdn", false, "query the API CDN")
	f.String("base-url", "", "override the API base URL")
	f.String("perspective", "", "query perspective (published|drafts|raw)")
}

// LoadConfig merges, lowest first: defaults, the config file, GROQB_*
// environment variables and explicitly set flags.
func LoadConfig(file string, cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetDefault("project_id", "")
	v.SetDefault("dataset", "production")
	v.SetDefault("api_version", httpexec.DefaultAPIVersion)
	v.SetDefault("token", "")
	v.SetDefault("use_cdn", false)
	v.SetDefault("base_url", "")
	v.SetDefault("perspective", "")
	v.SetDefault("rate_limit", 0)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for flag, key := range configFlags {
			if fl := cmd.Flags().Lookup(flag); fl != nil && fl.Changed {
				if err := v.BindPFlag(key, fl); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c Config) httpConfig() httpexec.Config {
	return httpexec.Config{
		ProjectID:   c.ProjectID,
		Dataset:     c.Dataset,
		APIVersion:  c.APIVersion,
		Token:       c.Token,
		UseCDN:      c.UseCDN,
		BaseURL:     c.BaseURL,
		Perspective: c.Perspective,
	}
}

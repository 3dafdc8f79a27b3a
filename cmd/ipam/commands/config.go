package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ipam-client/internal/auth"
	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

// Config represents the CLI configuration.
type Config struct {
	API       string `json:"api,omitempty"        yaml:"api,omitempty"`
	Username  string `json:"username,omitempty"   yaml:"username,omitempty"`
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CSRFToken string `json:"csrf_token,omitempty" yaml:"csrf_token,omitempty"`

	Output   string `json:"output"              yaml:"output"`
	PageSize int    `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	Prefetch int    `json:"prefetch,omitempty"  yaml:"prefetch,omitempty"`
	RetryMax int    `json:"retry_max,omitempty" yaml:"retry_max,omitempty"`

	Cache   string `json:"cache,omitempty"    yaml:"cache,omitempty"`
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
}

// configSetters validate and apply a value for each settable key.
var configSetters = map[string]func(*Config, string) error{
	"api": func(c *Config, value string) error {
		endpoint, err := ipamclient.NormalizeEndpoint(value)
		if err != nil {
			return err
		}

		if endpoint != c.API {
			c.SessionID = ""
			c.CSRFToken = ""
		}

		c.API = endpoint

		return nil
	},
	"username": func(c *Config, value string) error {
		c.Username = value

		return nil
	},
	"output": func(c *Config, value string) error {
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = value

			return nil
		default:
			return fmt.Errorf("%w: %s", ipam.ErrUnsupportedOutputType, value)
		}
	},
	"page_size": func(c *Config, value string) error {
		size, err := strconv.Atoi(value)
		if err != nil || size <= 0 || size > ipam.MaxPageSize {
			return fmt.Errorf("%w: %s", constants.ErrInvalidPageSize, value)
		}

		c.PageSize = size

		return nil
	},
	"prefetch": func(c *Config, value string) error {
		pages, err := strconv.Atoi(value)
		if err != nil || pages < 1 {
			return fmt.Errorf("%w: prefetch must be at least 1: %s", constants.ErrInvalidValue, value)
		}

		c.Prefetch = pages

		return nil
	},
	"retry_max": func(c *Config, value string) error {
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("%w: retry_max must not be negative: %s", constants.ErrInvalidValue, value)
		}

		c.RetryMax = retries

		return nil
	},
	"cache": func(c *Config, value string) error {
		cacheType, err := ipam.ParseCacheType(value)
		if err != nil {
			return err
		}

		c.Cache = string(cacheType)

		return nil
	},
	"nats_url": func(c *Config, value string) error {
		c.NATSURL = value

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage IPAM CLI configuration including the API endpoint, session and display settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration. Session values are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.SessionID = maskSecret(config.SessionID)
			config.CSRFToken = maskSecret(config.CSRFToken)

			rows := [][]string{
				{"API", orNotAvailable(config.API)},
				{"Username", orNotAvailable(config.Username)},
				{"Session", orNotAvailable(config.SessionID)},
				{"CSRF Token", orNotAvailable(config.CSRFToken)},
				{"Output", config.Output},
				{"Page Size", strconv.Itoa(effectivePageSize(config, 0))},
				{"Prefetch", strconv.Itoa(effectivePrefetch(config))},
				{"Retry Max", strconv.Itoa(config.RetryMax)},
				{"Cache", orNotAvailable(config.Cache)},
				{"NATS URL", orNotAvailable(config.NATSURL)},
			}

			return renderProperties(cmd, config, rows)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + configKeyList(),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			setter, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, configKeyList())
			}

			config := loadConfig()

			err := setter(config, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Reset a configuration value to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			config := loadConfig()

			switch key {
			case "api":
				config.API = ""
				config.SessionID = ""
				config.CSRFToken = ""
			case "username":
				config.Username = ""
			case "output":
				config.Output = constants.FormatTable
			case "page_size":
				config.PageSize = 0
			case "prefetch":
				config.Prefetch = 0
			case "retry_max":
				config.RetryMax = 0
			case "cache":
				config.Cache = ""
			case "nats_url":
				config.NATSURL = ""
			default:
				return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, configKeyList())
			}

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Unset", key, "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Cleared", "all configuration", "")
		},
	}
}

func loadConfig() *Config {
	return &Config{
		API:       viper.GetString("api"),
		Username:  viper.GetString("username"),
		SessionID: viper.GetString("session_id"),
		CSRFToken: viper.GetString("csrf_token"),
		Output:    outputFormat(),
		PageSize:  viper.GetInt("page_size"),
		Prefetch:  viper.GetInt("prefetch"),
		RetryMax:  viper.GetInt("retry_max"),
		Cache:     viper.GetString("cache"),
		NATSURL:   viper.GetString("nats_url"),
	}
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func outputConfigUpdateResult(cmd *cobra.Command, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	handled, err := renderStructured(cmd.OutOrStdout(), result)
	if handled {
		return err
	}

	if value != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", action, key, value)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action, key)
	}

	return nil
}

func configKeyList() string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return strings.Join(keys, ", ")
}

// effectivePageSize picks the flag value, then the configured size, then the
// backend default.
func effectivePageSize(config *Config, flagValue int) int {
	switch {
	case flagValue > 0:
		return flagValue
	case config.PageSize > 0:
		return config.PageSize
	default:
		return ipam.DefaultPageSize
	}
}

func effectivePrefetch(config *Config) int {
	if config.Prefetch > 0 {
		return config.Prefetch
	}

	return constants.DefaultPrefetch
}

// ConfigPersister stores session credentials in the CLI config file.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.SessionPersister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateSession saves the session of apiEndpoint. Empty values clear it.
func (p *ConfigPersister) UpdateSession(apiEndpoint, sessionID, csrfToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.API = apiEndpoint
	config.SessionID = sessionID
	config.CSRFToken = csrfToken

	err := saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set("api", apiEndpoint)
	viper.Set("session_id", sessionID)
	viper.Set("csrf_token", csrfToken)

	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultOrganization is the organization managed when none is configured
	DefaultOrganization = "LibrePCB-Libraries"

	// DefaultUpgradeImage is the container image of the format converter
	DefaultUpgradeImage = "librepcb/librepcb-cli"

	// DefaultUpgradeArgs upgrades every library element in the mounted
	// working copy
	DefaultUpgradeArgs = "open-library --all --save /work"

	// LatestVersion selects the newest image tag instead of a release
	LatestVersion = "latest"

	CloneProtocolHTTPS = "https"
	CloneProtocolSSH   = "ssh"
)

// Config represents the repofleet configuration
type Config struct {
	Organization  string        `yaml:"organization" toml:"organization"`
	GitHub        GitHubConfig  `yaml:"github" toml:"github"`
	Workdir       string        `yaml:"workdir,omitempty" toml:"workdir"`
	Catalog       string        `yaml:"catalog,omitempty" toml:"catalog"`
	CloneProtocol string        `yaml:"clone_protocol,omitempty" toml:"clone_protocol"`
	CommitAuthor  CommitAuthor  `yaml:"commit_author,omitempty" toml:"commit_author"`
	Upgrade       UpgradeConfig `yaml:"upgrade,omitempty" toml:"upgrade"`

	// Apply is only read from legacy options files. It is never written.
	Apply bool `yaml:"-" toml:"-"`
}

// GitHubConfig represents GitHub-specific configuration
type GitHubConfig struct {
	Token string `yaml:"token,omitempty" toml:"token"`
}

// CommitAuthor overrides the git identity used for commits in working copies
type CommitAuthor struct {
	Name  string `yaml:"name,omitempty" toml:"name"`
	Email string `yaml:"email,omitempty" toml:"email"`
}

// UpgradeConfig describes the containerized format converter
type UpgradeConfig struct {
	Runtime string `yaml:"runtime,omitempty" toml:"runtime"`
	Image   string `yaml:"image,omitempty" toml:"image"`
	Version string `yaml:"version,omitempty" toml:"version"`
	Args    string `yaml:"args,omitempty" toml:"args"`
}

// legacyOptions mirrors the options.json file older deployments keep next
// to the working directory. Keys are the command line option names.
type legacyOptions struct {
	Token        string `json:"--token"`
	Apply        bool   `json:"--apply"`
	Organization string `json:"--org"`
}

// LegacyOptionsFile is read from the current directory when the default
// configuration file does not exist.
const LegacyOptionsFile = "options.json"

// LoadConfig loads configuration from the default location, falling back
// to a legacy options file in the current directory.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, err := os.Stat(LegacyOptionsFile); err == nil {
			return LoadConfigFromPath(LegacyOptionsFile)
		}
	}

	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specific path. The format is
// chosen by extension: .toml, .json (legacy options) or YAML otherwise.
// A missing file yields the defaults.
func LoadConfigFromPath(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config.ApplyDefaults()
		return config, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var options legacyOptions
		if err := json.Unmarshal(data, &options); err != nil {
			return nil, fmt.Errorf("failed to parse options file: %w", err)
		}
		config.GitHub.Token = options.Token
		config.Apply = options.Apply
		config.Organization = options.Organization
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyDefaults()
	return config, nil
}

// ApplyDefaults fills every unset field with its default value
func (c *Config) ApplyDefaults() {
	if c.Organization == "" {
		c.Organization = DefaultOrganization
	}
	if c.Workdir == "" {
		c.Workdir = defaultWorkdir()
	}
	if c.CloneProtocol == "" {
		c.CloneProtocol = CloneProtocolHTTPS
	}
	if c.Upgrade.Runtime == "" {
		c.Upgrade.Runtime = "docker"
	}
	if c.Upgrade.Image == "" {
		c.Upgrade.Image = DefaultUpgradeImage
	}
	if c.Upgrade.Args == "" {
		c.Upgrade.Args = DefaultUpgradeArgs
	}
}

// SaveConfig saves configuration to the default location
func (c *Config) SaveConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveConfigToPath(configPath)
}

// SaveConfigToPath saves configuration to a specific path as YAML. The file
// may hold a token, so it is only readable by the owner.
func (c *Config) SaveConfigToPath(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".repofleet", "config.yaml"), nil
}

func defaultWorkdir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "repos"
	}
	return filepath.Join(homeDir, ".repofleet", "repos")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Organization == "" {
		return fmt.Errorf("organization is required")
	}

	if c.Workdir == "" {
		return fmt.Errorf("working directory is required")
	}

	switch c.CloneProtocol {
	case CloneProtocolHTTPS, CloneProtocolSSH:
	default:
		return fmt.Errorf("invalid clone protocol %q: must be %q or %q", c.CloneProtocol, CloneProtocolHTTPS, CloneProtocolSSH)
	}

	if (c.CommitAuthor.Name == "") != (c.CommitAuthor.Email == "") {
		return fmt.Errorf("commit author needs both name and email")
	}

	if c.Upgrade.Version != "" {
		if err := ValidateUpgradeVersion(c.Upgrade.Version); err != nil {
			return err
		}
		if c.Upgrade.Image == "" {
			return fmt.Errorf("upgrade image is required when an upgrade version is set")
		}
	}

	return nil
}

// ValidateUpgradeVersion checks that version is a release number or "latest"
func ValidateUpgradeVersion(version string) error {
	if version == LatestVersion {
		return nil
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("invalid upgrade version %q: %w", version, err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/cookware/cargo-cook/util/common/errors"
)

// Config represents the top-level configuration structure
type Config struct {
	Package Package `toml:"package" yaml:"package"`
	Cook    *Cook   `toml:"cook" yaml:"cook"`
}

// Package is the metadata of the crate being cooked. Cook settings may be
// nested under [package.metadata.cook] instead of a top-level [cook].
type Package struct {
	Name     string `toml:"name" yaml:"name"`
	Version  string `toml:"version" yaml:"version"`
	Metadata struct {
		Cook *Cook `toml:"cook" yaml:"cook"`
	} `toml:"metadata" yaml:"metadata"`
}

// Cook holds the packaging settings
type Cook struct {
	TargetDirectory string       `toml:"target_directory" yaml:"target_directory"`
	TargetRename    string       `toml:"target_rename" yaml:"target_rename"`
	CookDirectory   string       `toml:"cook_directory" yaml:"cook_directory"`
	Containers      []string     `toml:"containers" yaml:"containers"`
	Hashes          []string     `toml:"hashes" yaml:"hashes"`
	PreCook         string       `toml:"pre_cook" yaml:"pre_cook"`
	PostCook        string       `toml:"post_cook" yaml:"post_cook"`
	FailOnHookError bool         `toml:"fail_on_hook_error" yaml:"fail_on_hook_error"`
	Ingredients     []Ingredient `toml:"ingredient" yaml:"ingredient"`
	Deploy          *Deploy      `toml:"deploy" yaml:"deploy"`
}

// Ingredient is a declared source to include in the archive
type Ingredient struct {
	Source      string `toml:"source" yaml:"source"`
	Filter      string `toml:"filter" yaml:"filter"`
	Glob        string `toml:"glob" yaml:"glob"`
	Destination string `toml:"destination" yaml:"destination"`
}

// Deploy lists the deploy targets and their parameter blocks
type Deploy struct {
	Targets []string `toml:"targets" yaml:"targets"`
	SSH     *SSH     `toml:"ssh" yaml:"ssh"`
	FSCopy  *FSCopy  `toml:"fscopy" yaml:"fscopy"`
	HTTP    *HTTP    `toml:"http" yaml:"http"`
}

// SSH configures the ssh deploy target
type SSH struct {
	Hostname          string `toml:"hostname" yaml:"hostname"`
	Username          string `toml:"username" yaml:"username"`
	RemotePath        string `toml:"remote_path" yaml:"remote_path"`
	DeployScript      string `toml:"deploy_script" yaml:"deploy_script"`
	KnownHosts        string `toml:"known_hosts" yaml:"known_hosts"`
	Proxy             string `toml:"proxy" yaml:"proxy"`
	FailOnScriptError bool   `toml:"fail_on_script_error" yaml:"fail_on_script_error"`
}

// FSCopy configures the fscopy deploy target
type FSCopy struct {
	Path string `toml:"path" yaml:"path"`
}

// HTTP configures the http deploy target
type HTTP struct {
	URL      string            `toml:"url" yaml:"url"`
	Method   string            `toml:"method" yaml:"method"`
	Username string            `toml:"username" yaml:"username"`
	Password string            `toml:"password" yaml:"password"`
	Headers  map[string]string `toml:"headers" yaml:"headers"`
	RetryMax int               `toml:"retry_max" yaml:"retry_max"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("%s file was not found", path), err)
	}

	// Expand environment variables in the file
	expanded := expandEnv(string(data))

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal([]byte(expanded), &config)
	default:
		_, err = toml.Decode(expanded, &config)
	}
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("unable to parse %s", path), err)
	}

	if config.Cook == nil {
		config.Cook = config.Package.Metadata.Cook
	}

	if err := config.Validate(); err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("invalid %s", path), err)
	}

	return &config, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv expands ${VAR} references only; a bare $ is common in filter
// regular expressions and must survive untouched.
func expandEnv(content string) string {
	return envRef.ReplaceAllStringFunc(content, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Validate performs the structural checks that do not need the registries
func (c *Config) Validate() error {
	if c.Package.Name == "" {
		return errors.NewValidationError("package.name", "package name must be specified")
	}
	if c.Package.Version == "" {
		return errors.NewValidationError("package.version", "package version must be specified")
	}
	if !semver.IsValid("v" + strings.TrimPrefix(c.Package.Version, "v")) {
		log.Warn().Str("version", c.Package.Version).Msg("package version is not a semantic version")
	}
	if c.Cook == nil {
		return errors.NewValidationError("cook", "no [cook] or [package.metadata.cook] section")
	}
	if c.Cook.TargetDirectory == "" {
		return errors.NewValidationError("cook.target_directory", "target directory must be specified")
	}
	if c.Cook.CookDirectory == "" {
		return errors.NewValidationError("cook.cook_directory", "cook directory must be specified")
	}
	if len(c.Cook.Containers) == 0 {
		return errors.NewValidationError("cook.containers", "at least one container must be specified")
	}

	for i, ing := range c.Cook.Ingredients {
		field := fmt.Sprintf("cook.ingredient[%d]", i)
		if ing.Source == "" {
			return errors.NewValidationError(field+".source", "source must be specified")
		}
		if ing.Destination == "" {
			return errors.NewValidationError(field+".destination", "destination must be specified")
		}
		if ing.Filter != "" && ing.Glob != "" {
			return errors.NewValidationError(field, "filter and glob are mutually exclusive")
		}
		if ing.Filter != "" {
			if _, err := regexp.Compile(ing.Filter); err != nil {
				return errors.NewValidationError(field+".filter", err.Error())
			}
		}
		if ing.Glob != "" {
			if _, err := glob.Compile(ing.Glob); err != nil {
				return errors.NewValidationError(field+".glob", err.Error())
			}
		}
	}

	if d := c.Cook.Deploy; d != nil {
		for _, t := range d.Targets {
			if strings.TrimSpace(t) == "" {
				return errors.NewValidationError("cook.deploy.targets", "empty target name")
			}
		}
	}
	return nil
}

// ArchiveBaseName is "{name}-{version}", the stem of every cooked archive.
func (c *Config) ArchiveBaseName() string {
	return fmt.Sprintf("%s-%s", c.Package.Name, c.Package.Version)
}

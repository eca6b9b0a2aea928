// Package config discovers, merges and validates dumpo.toml files and loads
// the optional root .gitignore.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/temirov/dumpo/internal/utils"
)

const (
	configurationType = "toml"
	darwinOS          = "darwin"

	// DefaultMaxFileBytes caps the bytes rendered for a single file.
	DefaultMaxFileBytes = 100000
	// DefaultMaxTotalBytes caps the size of the whole artifact.
	DefaultMaxTotalBytes = 800000
	// DefaultModel selects the tokenizer used for token estimates.
	DefaultModel = "gpt-4o"
)

// ErrInvalidConfiguration wraps every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// LoadOptions controls how configuration files are discovered.
type LoadOptions struct {
	// StartDirectory is where the search for a local dumpo.toml begins.
	StartDirectory   string
	ExplicitFilePath string
	// Disabled skips both the global and the local configuration.
	Disabled bool
}

// PackConfiguration mirrors dumpo.toml. Nil fields were not set.
type PackConfiguration struct {
	MaxFileBytes  *int     `mapstructure:"max_file_bytes" validate:"omitempty,gt=0"`
	MaxTotalBytes *int     `mapstructure:"max_total_bytes" validate:"omitempty,gt=0"`
	IncludeHidden *bool    `mapstructure:"include_hidden"`
	Include       []string `mapstructure:"include"`
	Exclude       []string `mapstructure:"exclude"`
	UseGitignore  *bool    `mapstructure:"gitignore"`
	Stdout        *bool    `mapstructure:"stdout"`
	Clipboard     *bool    `mapstructure:"clipboard"`
	Tokens        *bool    `mapstructure:"tokens"`
	Model         *string  `mapstructure:"model" validate:"omitempty,notblank"`
}

// PackSettings are fully resolved pack options.
type PackSettings struct {
	MaxFileBytes  int
	MaxTotalBytes int
	IncludeHidden bool
	Include       []string
	Exclude       []string
	UseGitignore  bool
	Stdout        bool
	Clipboard     bool
	Tokens        bool
	Model         string
}

// DefaultPackSettings returns the built-in defaults. The clipboard is the
// default sink on macOS and stdout everywhere else.
func DefaultPackSettings() PackSettings {
	onDarwin := runtime.GOOS == darwinOS
	return PackSettings{
		MaxFileBytes:  DefaultMaxFileBytes,
		MaxTotalBytes: DefaultMaxTotalBytes,
		Stdout:        !onDarwin,
		Clipboard:     onDarwin,
		Model:         DefaultModel,
	}
}

// LoadApplicationConfiguration merges the global configuration with the local
// one. The local file is the explicit path when given, otherwise the nearest
// dumpo.toml in StartDirectory or its ancestors.
func LoadApplicationConfiguration(options LoadOptions) (PackConfiguration, error) {
	if options.Disabled {
		return PackConfiguration{}, nil
	}
	startDirectory := options.StartDirectory
	if startDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return PackConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		startDirectory = currentDirectory
	}

	var merged PackConfiguration

	globalPath := GlobalConfigurationPath()
	if globalPath != "" {
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return PackConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, explicit, resolveErr := resolveLocalConfigPath(startDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return PackConfiguration{}, resolveErr
	}
	if localPath != "" && localPath != globalPath {
		localConfig, loadErr := loadConfigurationFromPath(localPath, explicit)
		if loadErr != nil {
			return PackConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

// GlobalConfigurationPath returns ~/.dumpo/dumpo.toml, or an empty string when
// the home directory cannot be determined.
func GlobalConfigurationPath() string {
	homeDirectory, err := os.UserHomeDir()
	if err != nil || homeDirectory == "" {
		return ""
	}
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
}

func resolveLocalConfigPath(startDirectory, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, true, nil
		}
		absolute, err := filepath.Abs(explicitPath)
		if err != nil {
			return "", true, fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
		}
		return absolute, true, nil
	}
	return FindNearestConfiguration(startDirectory), false, nil
}

// FindNearestConfiguration returns the first dumpo.toml found in directory or
// one of its ancestors, or an empty string.
func FindNearestConfiguration(directory string) string {
	current, err := filepath.Abs(directory)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(current, utils.ConfigFileName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func loadConfigurationFromPath(path string, required bool) (PackConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return PackConfiguration{}, nil
		}
		return PackConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return PackConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType(configurationType)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return PackConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config PackConfiguration
	if decodeErr := reader.UnmarshalExact(&config); decodeErr != nil {
		return PackConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	if validateErr := config.Validate(); validateErr != nil {
		return PackConfiguration{}, fmt.Errorf("%s: %w", path, validateErr)
	}
	return config, nil
}

// Validate checks field constraints such as positive byte limits.
func (config PackConfiguration) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// Merge overlays override onto the receiver. Unset override fields keep the
// receiver's values.
func (config PackConfiguration) Merge(override PackConfiguration) PackConfiguration {
	result := config
	if override.MaxFileBytes != nil {
		result.MaxFileBytes = clonePointer(override.MaxFileBytes)
	}
	if override.MaxTotalBytes != nil {
		result.MaxTotalBytes = clonePointer(override.MaxTotalBytes)
	}
	if override.IncludeHidden != nil {
		result.IncludeHidden = clonePointer(override.IncludeHidden)
	}
	if len(override.Include) > 0 {
		result.Include = utils.DeduplicatePatterns(utils.TrimPatterns(override.Include))
	}
	if len(override.Exclude) > 0 {
		result.Exclude = utils.DeduplicatePatterns(utils.TrimPatterns(override.Exclude))
	}
	if override.UseGitignore != nil {
		result.UseGitignore = clonePointer(override.UseGitignore)
	}
	if override.Stdout != nil {
		result.Stdout = clonePointer(override.Stdout)
	}
	if override.Clipboard != nil {
		result.Clipboard = clonePointer(override.Clipboard)
	}
	if override.Tokens != nil {
		result.Tokens = clonePointer(override.Tokens)
	}
	if override.Model != nil {
		result.Model = clonePointer(override.Model)
	}
	return result
}

// ApplyTo overlays the configured fields onto settings.
func (config PackConfiguration) ApplyTo(settings PackSettings) PackSettings {
	result := settings
	if config.MaxFileBytes != nil {
		result.MaxFileBytes = *config.MaxFileBytes
	}
	if config.MaxTotalBytes != nil {
		result.MaxTotalBytes = *config.MaxTotalBytes
	}
	if config.IncludeHidden != nil {
		result.IncludeHidden = *config.IncludeHidden
	}
	if len(config.Include) > 0 {
		result.Include = append([]string{}, config.Include...)
	}
	if len(config.Exclude) > 0 {
		result.Exclude = append([]string{}, config.Exclude...)
	}
	if config.UseGitignore != nil {
		result.UseGitignore = *config.UseGitignore
	}
	if config.Stdout != nil {
		result.Stdout = *config.Stdout
	}
	if config.Clipboard != nil {
		result.Clipboard = *config.Clipboard
	}
	if config.Tokens != nil {
		result.Tokens = *config.Tokens
	}
	if config.Model != nil {
		result.Model = *config.Model
	}
	return result
}

func clonePointer[T any](value *T) *T {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

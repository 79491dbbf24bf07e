// Package config resolves run settings from the environment and CLI overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// APIKeyEnvironmentVariable names the environment variable carrying the Gemini credential.
	APIKeyEnvironmentVariable = "GEMINI_API_KEY"
	// ModelEnvironmentVariable names the environment variable selecting the Gemini model.
	ModelEnvironmentVariable = "GEMINI_MODEL"
	// DefaultGeminiModel is used when neither the environment nor the CLI names a model.
	DefaultGeminiModel = "gemini-2.0-flash"
	// DefaultMaxDepth bounds directory tree rendering.
	DefaultMaxDepth = 8
	// DefaultRetries is the generation retry budget.
	DefaultRetries = 3

	// dotEnvFileName is the optional local dotfile read before the process environment.
	dotEnvFileName = ".env"
	// dotEnvFileType tells viper how to parse the dotfile.
	dotEnvFileType = "env"

	errorReadDotEnvFormat          = "reading %s: %w"
	errorWorkingDirectoryFormat    = "determine working directory: %w"
	errorNonPositiveMaxDepthFormat = "max depth must be positive, got %d"
	errorNonPositiveRetriesFormat  = "retries must be positive, got %d"
)

// Settings holds the immutable configuration for a single run.
type Settings struct {
	APIKey   string
	Model    string
	MaxDepth int
	Retries  int
}

// LoadOptions carries CLI overrides applied on top of environment values.
type LoadOptions struct {
	WorkingDirectory string
	APIKeyOverride   string
	ModelOverride    string
	MaxDepth         int
	Retries          int
}

// Load reads the optional local dotfile and the process environment and applies
// the provided overrides. The returned Settings value is complete and is not
// mutated afterwards; callers thread it downward explicitly.
func Load(options LoadOptions) (Settings, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return Settings{}, fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	reader := viper.New()
	reader.AutomaticEnv()

	dotEnvPath := filepath.Join(workingDirectory, dotEnvFileName)
	if dotEnvInfo, statError := os.Stat(dotEnvPath); statError == nil && !dotEnvInfo.IsDir() {
		reader.SetConfigFile(dotEnvPath)
		reader.SetConfigType(dotEnvFileType)
		if readError := reader.ReadInConfig(); readError != nil {
			return Settings{}, fmt.Errorf(errorReadDotEnvFormat, dotEnvPath, readError)
		}
	}

	settings := Settings{
		APIKey:   strings.TrimSpace(reader.GetString(APIKeyEnvironmentVariable)),
		Model:    strings.TrimSpace(reader.GetString(ModelEnvironmentVariable)),
		MaxDepth: options.MaxDepth,
		Retries:  options.Retries,
	}
	if options.APIKeyOverride != "" {
		settings.APIKey = strings.TrimSpace(options.APIKeyOverride)
	}
	if options.ModelOverride != "" {
		settings.Model = strings.TrimSpace(options.ModelOverride)
	}
	if settings.Model == "" {
		settings.Model = DefaultGeminiModel
	}
	if settings.MaxDepth == 0 {
		settings.MaxDepth = DefaultMaxDepth
	}
	if settings.Retries == 0 {
		settings.Retries = DefaultRetries
	}

	if settings.MaxDepth < 0 {
		return Settings{}, fmt.Errorf(errorNonPositiveMaxDepthFormat, settings.MaxDepth)
	}
	if settings.Retries < 0 {
		return Settings{}, fmt.Errorf(errorNonPositiveRetriesFormat, settings.Retries)
	}

	return settings, nil
}

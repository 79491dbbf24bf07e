package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/smartingest/internal/config"
)

// dotEnvContent defines a dotfile carrying both supported variables.
const dotEnvContent = "GEMINI_API_KEY=dotfile-key\nGEMINI_MODEL=dotfile-model\n"

// TestLoadDefaults verifies that zero-valued options resolve to documented defaults.
func TestLoadDefaults(testingInstance *testing.T) {
	os.Unsetenv(config.APIKeyEnvironmentVariable)
	os.Unsetenv(config.ModelEnvironmentVariable)

	settings, loadError := config.Load(config.LoadOptions{WorkingDirectory: testingInstance.TempDir()})
	if loadError != nil {
		testingInstance.Fatalf("unexpected error: %v", loadError)
	}
	if settings.Model != config.DefaultGeminiModel {
		testingInstance.Errorf("expected default model %s, got %s", config.DefaultGeminiModel, settings.Model)
	}
	if settings.MaxDepth != config.DefaultMaxDepth {
		testingInstance.Errorf("expected default max depth %d, got %d", config.DefaultMaxDepth, settings.MaxDepth)
	}
	if settings.Retries != config.DefaultRetries {
		testingInstance.Errorf("expected default retries %d, got %d", config.DefaultRetries, settings.Retries)
	}
	if settings.APIKey != "" {
		testingInstance.Errorf("expected empty credential, got %s", settings.APIKey)
	}
}

// TestLoadDotEnvFile verifies that a local dotfile supplies credential and model values.
func TestLoadDotEnvFile(testingInstance *testing.T) {
	os.Unsetenv(config.APIKeyEnvironmentVariable)
	os.Unsetenv(config.ModelEnvironmentVariable)

	workingDirectory := testingInstance.TempDir()
	dotEnvPath := filepath.Join(workingDirectory, ".env")
	if writeError := os.WriteFile(dotEnvPath, []byte(dotEnvContent), 0o600); writeError != nil {
		testingInstance.Fatalf("writing dotfile: %v", writeError)
	}

	settings, loadError := config.Load(config.LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		testingInstance.Fatalf("unexpected error: %v", loadError)
	}
	if settings.APIKey != "dotfile-key" {
		testingInstance.Errorf("expected dotfile credential, got %s", settings.APIKey)
	}
	if settings.Model != "dotfile-model" {
		testingInstance.Errorf("expected dotfile model, got %s", settings.Model)
	}
}

// TestLoadOverrides verifies that CLI overrides win over environment values.
func TestLoadOverrides(testingInstance *testing.T) {
	testingInstance.Setenv(config.APIKeyEnvironmentVariable, "environment-key")
	testingInstance.Setenv(config.ModelEnvironmentVariable, "environment-model")

	settings, loadError := config.Load(config.LoadOptions{
		WorkingDirectory: testingInstance.TempDir(),
		APIKeyOverride:   "flag-key",
		ModelOverride:    "flag-model",
		MaxDepth:         4,
		Retries:          5,
	})
	if loadError != nil {
		testingInstance.Fatalf("unexpected error: %v", loadError)
	}
	if settings.APIKey != "flag-key" {
		testingInstance.Errorf("expected flag credential, got %s", settings.APIKey)
	}
	if settings.Model != "flag-model" {
		testingInstance.Errorf("expected flag model, got %s", settings.Model)
	}
	if settings.MaxDepth != 4 {
		testingInstance.Errorf("expected max depth 4, got %d", settings.MaxDepth)
	}
	if settings.Retries != 5 {
		testingInstance.Errorf("expected retries 5, got %d", settings.Retries)
	}
}

// TestLoadRejectsNegativeBounds verifies that negative numeric options fail loading.
func TestLoadRejectsNegativeBounds(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		options  config.LoadOptions
	}{
		{testName: "negative max depth", options: config.LoadOptions{MaxDepth: -1}},
		{testName: "negative retries", options: config.LoadOptions{Retries: -2}},
	}
	for index, testCase := range testCases {
		testCase.options.WorkingDirectory = testingInstance.TempDir()
		if _, loadError := config.Load(testCase.options); loadError == nil {
			testingInstance.Errorf("case %d (%s): expected error, got nil", index, testCase.testName)
		}
	}
}

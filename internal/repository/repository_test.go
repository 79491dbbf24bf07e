package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/smartingest/internal/repository"
)

// TestIsRemoteSource verifies URL prefix recognition.
func TestIsRemoteSource(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		source   string
		expected bool
	}{
		{testName: "https url", source: "https://github.com/owner/project", expected: true},
		{testName: "http url", source: "http://example.com/repo.git", expected: true},
		{testName: "ssh url", source: "git@github.com:owner/project.git", expected: true},
		{testName: "relative path", source: "./project", expected: false},
		{testName: "absolute path", source: "/srv/project", expected: false},
		{testName: "current directory", source: ".", expected: false},
	}
	for index, testCase := range testCases {
		if actual := repository.IsRemoteSource(testCase.source); actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %t, got %t", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestDefaultOutputFileName verifies digest name derivation for local and remote sources.
func TestDefaultOutputFileName(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		source   string
		expected string
	}{
		{testName: "https url with git suffix", source: "https://github.com/owner/project.git", expected: "digest-project.txt"},
		{testName: "https url without suffix", source: "https://github.com/owner/project", expected: "digest-project.txt"},
		{testName: "ssh url", source: "git@github.com:owner/project.git", expected: "digest-project.txt"},
		{testName: "local path", source: "/srv/checkouts/project", expected: "digest-project.txt"},
	}
	for index, testCase := range testCases {
		if actual := repository.DefaultOutputFileName(testCase.source); actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %s, got %s", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestDefaultOutputFileNameResolvesCurrentDirectory verifies that "." resolves
// to the working directory name rather than a literal dot.
func TestDefaultOutputFileNameResolvesCurrentDirectory(testingInstance *testing.T) {
	actual := repository.DefaultOutputFileName(".")
	if actual == "digest-..txt" || actual == "digest-.txt" {
		testingInstance.Errorf("expected resolved directory name, got %s", actual)
	}
}

// TestCloneScopeReleaseRemovesDirectory verifies guaranteed cleanup of the clone directory.
func TestCloneScopeReleaseRemovesDirectory(testingInstance *testing.T) {
	scope, scopeError := repository.NewCloneScope()
	if scopeError != nil {
		testingInstance.Fatalf("creating clone scope: %v", scopeError)
	}
	markerPath := filepath.Join(scope.Path, "marker.txt")
	if writeError := os.WriteFile(markerPath, []byte("content"), 0o644); writeError != nil {
		testingInstance.Fatalf("writing marker file: %v", writeError)
	}

	if releaseError := scope.Release(); releaseError != nil {
		testingInstance.Fatalf("releasing clone scope: %v", releaseError)
	}
	if _, statError := os.Stat(scope.Path); !os.IsNotExist(statError) {
		testingInstance.Errorf("expected directory removal, stat returned %v", statError)
	}
}

// TestCloneScopeReleaseIsNilSafe verifies that releasing a nil scope is harmless.
func TestCloneScopeReleaseIsNilSafe(testingInstance *testing.T) {
	var scope *repository.CloneScope
	if releaseError := scope.Release(); releaseError != nil {
		testingInstance.Errorf("expected nil error, got %v", releaseError)
	}
}

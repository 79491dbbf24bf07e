package tree_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/smartingest/internal/tree"
)

// buildSampleTree creates the fixture used across renderer tests:
//
//	root/
//	    ├── alpha/
//	    │   ├── beta.txt
//	    │   └── zeta/
//	    │       └── deep.txt
//	    └── omega.txt
func buildSampleTree(testingInstance *testing.T) string {
	testingInstance.Helper()
	baseDirectory := testingInstance.TempDir()
	rootDirectory := filepath.Join(baseDirectory, "root")
	deepDirectory := filepath.Join(rootDirectory, "alpha", "zeta")
	if makeError := os.MkdirAll(deepDirectory, 0o755); makeError != nil {
		testingInstance.Fatalf("creating fixture directories: %v", makeError)
	}
	fixtureFiles := []string{
		filepath.Join(rootDirectory, "omega.txt"),
		filepath.Join(rootDirectory, "alpha", "beta.txt"),
		filepath.Join(deepDirectory, "deep.txt"),
	}
	for _, fixtureFile := range fixtureFiles {
		if writeError := os.WriteFile(fixtureFile, []byte("content"), 0o644); writeError != nil {
			testingInstance.Fatalf("creating fixture file %s: %v", fixtureFile, writeError)
		}
	}
	return rootDirectory
}

// TestRenderProducesExpectedLayout verifies connectors, prefixes, and directory markers.
func TestRenderProducesExpectedLayout(testingInstance *testing.T) {
	rootDirectory := buildSampleTree(testingInstance)
	renderer := tree.Renderer{MaxDepth: 8}

	expectedRendering := strings.Join([]string{
		"root/",
		"    ├── alpha/",
		"    │   ├── beta.txt",
		"    │   └── zeta/",
		"    │       └── deep.txt",
		"    └── omega.txt",
		"",
	}, "\n")

	actualRendering := renderer.Render(rootDirectory)
	if actualRendering != expectedRendering {
		testingInstance.Errorf("expected rendering:\n%s\ngot:\n%s", expectedRendering, actualRendering)
	}
}

// TestRenderIsDeterministic verifies byte-identical output across repeated runs.
func TestRenderIsDeterministic(testingInstance *testing.T) {
	rootDirectory := buildSampleTree(testingInstance)
	renderer := tree.Renderer{MaxDepth: 8}

	firstRendering := renderer.Render(rootDirectory)
	secondRendering := renderer.Render(rootDirectory)
	if firstRendering != secondRendering {
		testingInstance.Errorf("expected identical renderings, got:\n%s\nand:\n%s", firstRendering, secondRendering)
	}
}

// TestRenderStopsAtMaxDepth verifies that subtrees below the bound collapse to placeholder lines.
func TestRenderStopsAtMaxDepth(testingInstance *testing.T) {
	rootDirectory := buildSampleTree(testingInstance)
	renderer := tree.Renderer{MaxDepth: 1}

	rendering := renderer.Render(rootDirectory)
	if strings.Contains(rendering, "beta.txt") || strings.Contains(rendering, "deep.txt") {
		testingInstance.Errorf("expected no entries beyond depth 1, got:\n%s", rendering)
	}
	if !strings.Contains(rendering, "[max depth reached]") {
		testingInstance.Errorf("expected max depth placeholder, got:\n%s", rendering)
	}
	if !strings.Contains(rendering, "alpha/") {
		testingInstance.Errorf("expected depth 1 entries to render, got:\n%s", rendering)
	}
}

// TestRenderMissingPath verifies the placeholder emitted for a nonexistent root.
func TestRenderMissingPath(testingInstance *testing.T) {
	missingPath := filepath.Join(testingInstance.TempDir(), "absent")
	renderer := tree.Renderer{MaxDepth: 8}

	rendering := renderer.Render(missingPath)
	expectedRendering := "└── [path not found: absent]\n"
	if rendering != expectedRendering {
		testingInstance.Errorf("expected %q, got %q", expectedRendering, rendering)
	}
}

// TestRenderSingleFileRoot verifies that a file root renders without a directory marker.
func TestRenderSingleFileRoot(testingInstance *testing.T) {
	rootDirectory := buildSampleTree(testingInstance)
	renderer := tree.Renderer{MaxDepth: 8}

	rendering := renderer.Render(filepath.Join(rootDirectory, "omega.txt"))
	if rendering != "omega.txt\n" {
		testingInstance.Errorf("expected single line without marker, got %q", rendering)
	}
}

// TestRenderUnreadableDirectoryIsLocalized verifies that a directory whose
// listing fails renders a placeholder line while its siblings render normally.
func TestRenderUnreadableDirectoryIsLocalized(testingInstance *testing.T) {
	if os.Geteuid() == 0 {
		testingInstance.Skip("directory permissions are not enforced for root")
	}

	rootDirectory := filepath.Join(testingInstance.TempDir(), "root")
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	if makeError := os.MkdirAll(lockedDirectory, 0o755); makeError != nil {
		testingInstance.Fatalf("creating fixture directories: %v", makeError)
	}
	if writeError := os.WriteFile(filepath.Join(rootDirectory, "visible.txt"), []byte("content"), 0o644); writeError != nil {
		testingInstance.Fatalf("creating fixture file: %v", writeError)
	}
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingInstance.Fatalf("locking fixture directory: %v", chmodError)
	}
	testingInstance.Cleanup(func() {
		os.Chmod(lockedDirectory, 0o755)
	})

	rendering := (&tree.Renderer{MaxDepth: 8}).Render(rootDirectory)
	if !strings.Contains(rendering, "[permission denied]") {
		testingInstance.Errorf("expected permission placeholder, got:\n%s", rendering)
	}
	if !strings.Contains(rendering, "locked/") {
		testingInstance.Errorf("expected the unreadable directory itself to render, got:\n%s", rendering)
	}
	if !strings.Contains(rendering, "visible.txt") {
		testingInstance.Errorf("expected siblings of the unreadable directory to render, got:\n%s", rendering)
	}
}

// TestRenderDirectoriesFirst verifies the optional directories-first sibling ordering.
func TestRenderDirectoriesFirst(testingInstance *testing.T) {
	rootDirectory := filepath.Join(testingInstance.TempDir(), "root")
	if makeError := os.MkdirAll(filepath.Join(rootDirectory, "zebra"), 0o755); makeError != nil {
		testingInstance.Fatalf("creating fixture directories: %v", makeError)
	}
	if writeError := os.WriteFile(filepath.Join(rootDirectory, "aardvark.txt"), []byte("content"), 0o644); writeError != nil {
		testingInstance.Fatalf("creating fixture file: %v", writeError)
	}

	interleavedRendering := (&tree.Renderer{MaxDepth: 8}).Render(rootDirectory)
	if strings.Index(interleavedRendering, "aardvark.txt") > strings.Index(interleavedRendering, "zebra/") {
		testingInstance.Errorf("expected lexicographic order by default, got:\n%s", interleavedRendering)
	}

	directoriesFirstRendering := (&tree.Renderer{MaxDepth: 8, DirectoriesFirst: true}).Render(rootDirectory)
	if strings.Index(directoriesFirstRendering, "zebra/") > strings.Index(directoriesFirstRendering, "aardvark.txt") {
		testingInstance.Errorf("expected directories before files, got:\n%s", directoriesFirstRendering)
	}
}

// Package tree renders a filesystem subtree as deterministic text for analysis prompts.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultMaxDepth bounds traversal when the renderer is not configured explicitly.
	DefaultMaxDepth = 8

	// teeConnector prefixes entries that have a following sibling.
	teeConnector = "├── "
	// cornerConnector prefixes the last entry of a directory listing.
	cornerConnector = "└── "
	// continuationIndent keeps the vertical line visible while deeper siblings follow.
	continuationIndent = "│   "
	// terminalIndent indents descendants of a last child.
	terminalIndent = "    "
	// directorySuffix marks directory entries.
	directorySuffix = "/"

	maxDepthPlaceholder       = "[max depth reached]"
	pathNotFoundPlaceholder   = "[path not found: %s]"
	permissionPlaceholder     = "[permission denied]"
	listingFailurePlaceholder = "[error listing: %v]"
	lineTerminator            = "\n"
)

// Renderer produces a textual directory tree bounded by MaxDepth.
//
// The rendering is the only input the pattern generator ever sees, so it must
// be reproducible: re-rendering an unchanged filesystem yields byte-identical
// output, and every listed name corresponds to a real path under the root.
type Renderer struct {
	MaxDepth int
	// DirectoriesFirst lists directories before files at each level instead of
	// interleaving entries lexicographically.
	DirectoriesFirst bool
}

// Render walks the subtree rooted at rootPath and returns its rendering.
// Filesystem failures are localized: an unreadable directory renders a
// placeholder line and its siblings render normally.
func (renderer *Renderer) Render(rootPath string) string {
	var builder strings.Builder
	renderer.renderNode(&builder, rootPath, 0, "", true, true)
	return builder.String()
}

func (renderer *Renderer) effectiveMaxDepth() int {
	if renderer.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return renderer.MaxDepth
}

// renderNode emits one node and recurses into directory children.
func (renderer *Renderer) renderNode(builder *strings.Builder, path string, depth int, prefix string, isLast bool, isRoot bool) {
	if depth > renderer.effectiveMaxDepth() {
		builder.WriteString(prefix + cornerConnector + maxDepthPlaceholder + lineTerminator)
		return
	}

	pathInfo, statError := os.Stat(path)
	if statError != nil {
		builder.WriteString(prefix + cornerConnector + fmt.Sprintf(pathNotFoundPlaceholder, filepath.Base(path)) + lineTerminator)
		return
	}

	baseName := filepath.Base(path)
	displayName := baseName
	if pathInfo.IsDir() {
		displayName += directorySuffix
	}

	if isRoot {
		builder.WriteString(displayName + lineTerminator)
	} else {
		connector := teeConnector
		if isLast {
			connector = cornerConnector
		}
		builder.WriteString(prefix + connector + displayName + lineTerminator)
	}

	if !pathInfo.IsDir() {
		return
	}

	childPrefix := prefix + continuationIndent
	if isLast || isRoot {
		childPrefix = prefix + terminalIndent
	}

	directoryEntries, readDirectoryError := os.ReadDir(path)
	if readDirectoryError != nil {
		if errors.Is(readDirectoryError, fs.ErrPermission) {
			builder.WriteString(childPrefix + cornerConnector + permissionPlaceholder + lineTerminator)
		} else {
			builder.WriteString(childPrefix + cornerConnector + fmt.Sprintf(listingFailurePlaceholder, readDirectoryError) + lineTerminator)
		}
		return
	}

	if renderer.DirectoriesFirst {
		sort.SliceStable(directoryEntries, func(first, second int) bool {
			if directoryEntries[first].IsDir() != directoryEntries[second].IsDir() {
				return directoryEntries[first].IsDir()
			}
			return directoryEntries[first].Name() < directoryEntries[second].Name()
		})
	}

	for entryIndex, directoryEntry := range directoryEntries {
		entryIsLast := entryIndex == len(directoryEntries)-1
		renderer.renderNode(builder, filepath.Join(path, directoryEntry.Name()), depth+1, childPrefix, entryIsLast, false)
	}
}

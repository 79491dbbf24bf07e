// Package repository resolves ingestion sources and manages shallow clones.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

const (
	// temporaryDirectoryPrefix names clone directories created for remote sources.
	temporaryDirectoryPrefix = "smartingest-clone-"

	// outputFileNameFormat derives the default digest file name from the source name.
	outputFileNameFormat = "digest-%s.txt"

	gitExecutableName  = "git"
	gitSuffixExtension = ".git"

	errorCreateTemporaryDirectoryFormat = "create temporary clone directory: %w"
	errorGitNotFoundMessage             = "git command not found; ensure git is installed and on PATH"
	errorCloneFormat                    = "cloning %s: %w: %s"
)

// remoteSourcePrefixes identify repository URLs.
var remoteSourcePrefixes = []string{"http://", "https://", "git@"}

// IsRemoteSource reports whether the source names a remote repository URL.
func IsRemoteSource(source string) bool {
	for _, prefix := range remoteSourcePrefixes {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return false
}

// DefaultOutputFileName derives the digest file name from the source.
// Remote URLs contribute their repository name without the .git suffix;
// local paths contribute their resolved base name.
func DefaultOutputFileName(source string) string {
	var namePart string
	if IsRemoteSource(source) {
		strippedSource := source
		if strings.HasPrefix(source, "git@") {
			if _, pathPart, found := strings.Cut(source, ":"); found {
				strippedSource = pathPart
			}
		}
		namePart = strings.TrimSuffix(path.Base(strippedSource), gitSuffixExtension)
	} else {
		absoluteSource, absoluteError := filepath.Abs(source)
		if absoluteError != nil {
			absoluteSource = source
		}
		namePart = filepath.Base(absoluteSource)
	}
	return fmt.Sprintf(outputFileNameFormat, namePart)
}

// CloneScope owns a temporary directory holding a remote clone. Release must
// run on every exit path so the directory never outlives the invocation.
type CloneScope struct {
	Path string
}

// NewCloneScope creates the scoped temporary directory.
func NewCloneScope() (*CloneScope, error) {
	temporaryDirectory, createError := os.MkdirTemp("", temporaryDirectoryPrefix)
	if createError != nil {
		return nil, fmt.Errorf(errorCreateTemporaryDirectoryFormat, createError)
	}
	return &CloneScope{Path: temporaryDirectory}, nil
}

// Release removes the temporary directory and everything beneath it.
func (scope *CloneScope) Release() error {
	if scope == nil || scope.Path == "" {
		return nil
	}
	return os.RemoveAll(scope.Path)
}

// Clone performs a shallow clone of repositoryURL into targetDirectory.
// An empty branch clones the remote default branch.
func Clone(ctx context.Context, repositoryURL string, targetDirectory string, branch string) error {
	arguments := []string{"clone", "--depth", "1", "--quiet"}
	if branch != "" {
		arguments = append(arguments, "-b", branch)
	}
	arguments = append(arguments, repositoryURL, targetDirectory)

	command := exec.CommandContext(ctx, gitExecutableName, arguments...)
	var standardErrorBuffer bytes.Buffer
	command.Stderr = &standardErrorBuffer

	if runError := command.Run(); runError != nil {
		if errors.Is(runError, exec.ErrNotFound) {
			return errors.New(errorGitNotFoundMessage)
		}
		return fmt.Errorf(errorCloneFormat, repositoryURL, runError, strings.TrimSpace(standardErrorBuffer.String()))
	}
	return nil
}

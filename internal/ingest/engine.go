// Package ingest reads a source tree and produces a digest file honoring
// include and exclude patterns and a per-file size ceiling.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/smartingest/internal/tokenizer"
	"github.com/temirov/smartingest/internal/utils"
)

const (
	// DefaultMaxFileSize bounds individual files considered for the digest (10 MiB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	separatorLine    = "================================================"
	digestHeaderWord = "Digest of"
	fileHeaderWord   = "File"

	errorRootNotDirectoryFormat = "ingestion root %s is not a directory"
	errorStatRootFormat         = "stat ingestion root %s: %w"
	errorCreateOutputFormat     = "create digest output %s: %w"
	errorFlushOutputFormat      = "flush digest output %s: %w"
	errorWalkFormat             = "walking %s: %w"

	warningReadFileMessage   = "skipping unreadable file"
	warningTokenCountMessage = "failed to count tokens"
	pathFieldName            = "path"
)

// Options configures one ingestion run.
type Options struct {
	Root            string
	Source          string
	OutputPath      string
	MaxFileSize     int64
	IncludePatterns []string
	ExcludePatterns []string
	TokenCounter    tokenizer.Counter
}

// Summary reports what the digest contains.
type Summary struct {
	Files         int
	TotalBytes    int64
	Tokens        int
	SkippedLarge  int
	SkippedBinary int
	OutputPath    string
}

// Describe renders the summary for terminal display.
func (summary Summary) Describe() string {
	description := fmt.Sprintf("%d files, %s", summary.Files, utils.FormatFileSize(summary.TotalBytes))
	if summary.Tokens > 0 {
		description += fmt.Sprintf(", ~%d tokens", summary.Tokens)
	}
	if summary.SkippedLarge > 0 {
		description += fmt.Sprintf(" (%d files over size limit skipped)", summary.SkippedLarge)
	}
	if summary.SkippedBinary > 0 {
		description += fmt.Sprintf(" (%d binary files skipped)", summary.SkippedBinary)
	}
	return description
}

// Engine is the ingestion collaborator invoked by the orchestrator.
type Engine interface {
	Ingest(ctx context.Context, options Options) (Summary, error)
}

// DigestEngine walks a source tree and writes the digest file.
type DigestEngine struct {
	logger *zap.Logger
}

// NewDigestEngine constructs a DigestEngine.
func NewDigestEngine(logger *zap.Logger) *DigestEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestEngine{logger: logger}
}

// fileRecord describes one candidate file flowing from the walker to the writer.
type fileRecord struct {
	AbsolutePath string
	RelativePath string
	SizeBytes    int64
}

// Ingest walks options.Root, filters entries through the pattern matcher, and
// writes matched text files into the digest at options.OutputPath.
func (engine *DigestEngine) Ingest(ctx context.Context, options Options) (Summary, error) {
	rootInfo, statError := os.Stat(options.Root)
	if statError != nil {
		return Summary{}, fmt.Errorf(errorStatRootFormat, options.Root, statError)
	}
	if !rootInfo.IsDir() {
		return Summary{}, fmt.Errorf(errorRootNotDirectoryFormat, options.Root)
	}

	maxFileSize := options.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	outputFile, createError := os.Create(options.OutputPath)
	if createError != nil {
		return Summary{}, fmt.Errorf(errorCreateOutputFormat, options.OutputPath, createError)
	}
	defer outputFile.Close()

	outputWriter := bufio.NewWriter(outputFile)
	writeDigestHeader(outputWriter, options.Source)

	matcher := NewMatcher(options.IncludePatterns, options.ExcludePatterns)
	summary := Summary{OutputPath: options.OutputPath}

	group, groupCtx := errgroup.WithContext(ctx)
	records := make(chan fileRecord)

	absoluteOutputPath, absoluteOutputError := filepath.Abs(options.OutputPath)
	if absoluteOutputError != nil {
		absoluteOutputPath = options.OutputPath
	}

	group.Go(func() error {
		defer close(records)
		return engine.walkSource(groupCtx, options.Root, matcher, absoluteOutputPath, records)
	})

	group.Go(func() error {
		for record := range records {
			engine.appendFile(outputWriter, record, maxFileSize, options.TokenCounter, &summary)
		}
		return nil
	})

	if waitError := group.Wait(); waitError != nil {
		return Summary{}, waitError
	}

	if flushError := outputWriter.Flush(); flushError != nil {
		return Summary{}, fmt.Errorf(errorFlushOutputFormat, options.OutputPath, flushError)
	}
	return summary, nil
}

// walkSource streams matching files in deterministic lexical order.
func (engine *DigestEngine) walkSource(ctx context.Context, root string, matcher Matcher, absoluteOutputPath string, records chan<- fileRecord) error {
	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		relativePath := utils.RelativePathOrSelf(currentPath, root)
		if relativePath == "." {
			return nil
		}

		// The digest must never ingest itself when written inside the root.
		if absolutePath, absoluteError := filepath.Abs(currentPath); absoluteError == nil && absolutePath == absoluteOutputPath {
			return nil
		}

		if directoryEntry.IsDir() {
			// Include patterns may rescue files beneath an excluded directory,
			// so pruning only happens when none are configured.
			if matcher.IsExcluded(relativePath, true) && !matcher.HasIncludes() {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.IsExcluded(relativePath, false) {
			return nil
		}

		entryInfo, infoError := directoryEntry.Info()
		if infoError != nil {
			engine.logger.Warn(warningReadFileMessage, zap.String(pathFieldName, currentPath), zap.Error(infoError))
			return nil
		}

		record := fileRecord{
			AbsolutePath: currentPath,
			RelativePath: relativePath,
			SizeBytes:    entryInfo.Size(),
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case records <- record:
			return nil
		}
	}

	if walkError := filepath.WalkDir(root, walkFunction); walkError != nil {
		return fmt.Errorf(errorWalkFormat, root, walkError)
	}
	return nil
}

// appendFile writes one file block into the digest and updates the summary.
func (engine *DigestEngine) appendFile(outputWriter *bufio.Writer, record fileRecord, maxFileSize int64, tokenCounter tokenizer.Counter, summary *Summary) {
	if record.SizeBytes > maxFileSize {
		summary.SkippedLarge++
		return
	}
	if utils.IsFileBinary(record.AbsolutePath) {
		summary.SkippedBinary++
		return
	}

	content, readError := os.ReadFile(record.AbsolutePath)
	if readError != nil {
		engine.logger.Warn(warningReadFileMessage, zap.String(pathFieldName, record.AbsolutePath), zap.Error(readError))
		return
	}

	fmt.Fprintf(outputWriter, "%s\n%s: %s\n%s\n", separatorLine, fileHeaderWord, record.RelativePath, separatorLine)
	outputWriter.Write(content)
	if len(content) == 0 || content[len(content)-1] != '\n' {
		outputWriter.WriteByte('\n')
	}
	outputWriter.WriteByte('\n')

	summary.Files++
	summary.TotalBytes += record.SizeBytes
	if tokenCounter != nil {
		tokenCount, countError := tokenCounter.CountString(string(content))
		if countError != nil {
			engine.logger.Warn(warningTokenCountMessage, zap.String(pathFieldName, record.AbsolutePath), zap.Error(countError))
		} else {
			summary.Tokens += tokenCount
		}
	}
}

// writeDigestHeader opens the digest with the source identification block.
func writeDigestHeader(outputWriter *bufio.Writer, source string) {
	fmt.Fprintf(outputWriter, "%s\n%s: %s\n%s\n\n", separatorLine, digestHeaderWord, source, separatorLine)
}

var _ Engine = (*DigestEngine)(nil)

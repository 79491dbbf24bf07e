// Package app orchestrates source preparation, pattern generation, and ingestion.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/smartingest/internal/config"
	"github.com/temirov/smartingest/internal/gemini"
	"github.com/temirov/smartingest/internal/ingest"
	"github.com/temirov/smartingest/internal/patterns"
	"github.com/temirov/smartingest/internal/repository"
	"github.com/temirov/smartingest/internal/services/clipboard"
	"github.com/temirov/smartingest/internal/tokenizer"
	"github.com/temirov/smartingest/internal/tree"
	"github.com/temirov/smartingest/internal/utils"
)

const (
	errorMissingSourceFormat = "local source path does not exist: %s"
	errorResolveSourceFormat = "resolving source path %s: %w"
	errorResolveOutputFormat = "resolving output path %s: %w"

	missingCredentialWarning     = "no Gemini API key configured; automatic exclude generation is disabled"
	sourceNotDirectoryWarning    = "source is not a directory; skipping automatic exclude generation"
	localBranchWarning           = "branch selection applies to remote clones; local sources are processed as checked out"
	backendConstructionWarning   = "could not configure generation backend"
	tokenizerConstructionWarning = "could not initialize token counter; token counts disabled"
	releaseCloneWarning          = "failed to remove temporary clone directory"
	clipboardCopyWarning         = "failed to copy digest to clipboard"
	noAutoPatternsMessage        = "no automatic exclude patterns generated; using manual patterns only"

	analyzingMessage    = "analyzing directory structure"
	generatingMessage   = "generating exclusion patterns"
	cloningMessage      = "cloning repository"
	ingestingMessage    = "running ingestion"
	ingestionDoneFormat = "digest written to %s (%s)\n"

	treeDisplayHeader   = "--- Directory Tree ---"
	treeDisplayFooter   = "--- End Tree ---"
	autoPatternsHeader  = "Automatically generated exclude patterns:"
	finalPatternsHeader = "Final exclude patterns:"
	patternLineFormat   = "  - %s\n"
	noPatternsLine      = "  (none)"
	dryRunNotice        = "Dry run requested; exiting without performing ingestion."

	sourceFieldName  = "source"
	pathFieldName    = "path"
	modelFieldName   = "model"
	outcomeFieldName = "outcome"
)

// BackendFactory builds a generation backend for a credential and model identifier.
type BackendFactory func(apiKey string, model string) (gemini.Backend, error)

// RunOptions carries the per-invocation parameters resolved by the CLI.
type RunOptions struct {
	Source          string
	OutputPath      string
	MaxFileSize     int64
	ExcludePatterns []string
	IncludePatterns []string
	Branch          string
	NoAutoExclude   bool
	DryRun          bool
	ShowTree        bool
	CountTokens     bool
	CopyToClipboard bool
}

// App wires the renderer, generator, and ingestion engine for one run.
type App struct {
	settings       config.Settings
	logger         *zap.Logger
	engine         ingest.Engine
	backendFactory BackendFactory
	copier         clipboard.Copier
	outputWriter   io.Writer
}

// New constructs the orchestrator with production collaborators.
func New(settings config.Settings, logger *zap.Logger, engine ingest.Engine) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		settings: settings,
		logger:   logger,
		engine:   engine,
		backendFactory: func(apiKey string, model string) (gemini.Backend, error) {
			return gemini.NewHTTPBackend(apiKey, model)
		},
		copier:       clipboard.NewService(),
		outputWriter: os.Stdout,
	}
}

// WithBackendFactory overrides backend construction, primarily for tests.
func (application *App) WithBackendFactory(factory BackendFactory) *App {
	if factory != nil {
		application.backendFactory = factory
	}
	return application
}

// WithCopier overrides the clipboard implementation.
func (application *App) WithCopier(copier clipboard.Copier) *App {
	if copier != nil {
		application.copier = copier
	}
	return application
}

// WithOutputWriter redirects user-facing pattern and summary display.
func (application *App) WithOutputWriter(writer io.Writer) *App {
	if writer != nil {
		application.outputWriter = writer
	}
	return application
}

// Run executes one invocation end to end. Auto-generation failures downgrade
// to manual patterns; source resolution and ingestion failures are fatal.
func (application *App) Run(ctx context.Context, options RunOptions) error {
	localSourcePath, cloneScope, prepareError := application.prepareSource(ctx, options)
	if prepareError != nil {
		return prepareError
	}
	if cloneScope != nil {
		defer func() {
			if releaseError := cloneScope.Release(); releaseError != nil {
				application.logger.Warn(releaseCloneWarning, zap.Error(releaseError))
			}
		}()
	}

	mergedPatterns := patterns.NewSet(options.ExcludePatterns...)

	sourceInfo, sourceStatError := os.Stat(localSourcePath)
	sourceIsDirectory := sourceStatError == nil && sourceInfo.IsDir()

	if !options.NoAutoExclude {
		switch {
		case application.settings.APIKey == "":
			application.logger.Warn(missingCredentialWarning)
		case !sourceIsDirectory:
			application.logger.Warn(sourceNotDirectoryWarning, zap.String(pathFieldName, localSourcePath))
		default:
			generatedPatterns := application.generatePatterns(ctx, localSourcePath, options.ShowTree)
			mergedPatterns.Union(generatedPatterns)
		}
	}

	application.displayPatterns(finalPatternsHeader, mergedPatterns)

	if options.DryRun {
		fmt.Fprintln(application.outputWriter, dryRunNotice)
		return nil
	}

	return application.executeIngestion(ctx, localSourcePath, options, mergedPatterns)
}

// prepareSource resolves the source to a local directory, cloning remotes
// into a scoped temporary directory.
func (application *App) prepareSource(ctx context.Context, options RunOptions) (string, *repository.CloneScope, error) {
	if repository.IsRemoteSource(options.Source) {
		cloneScope, scopeError := repository.NewCloneScope()
		if scopeError != nil {
			return "", nil, scopeError
		}
		application.logger.Info(cloningMessage, zap.String(sourceFieldName, options.Source))
		if cloneError := repository.Clone(ctx, options.Source, cloneScope.Path, options.Branch); cloneError != nil {
			if releaseError := cloneScope.Release(); releaseError != nil {
				application.logger.Warn(releaseCloneWarning, zap.Error(releaseError))
			}
			return "", nil, cloneError
		}
		return cloneScope.Path, cloneScope, nil
	}

	absoluteSourcePath, absoluteError := filepath.Abs(options.Source)
	if absoluteError != nil {
		return "", nil, fmt.Errorf(errorResolveSourceFormat, options.Source, absoluteError)
	}
	if _, statError := os.Stat(absoluteSourcePath); statError != nil {
		return "", nil, fmt.Errorf(errorMissingSourceFormat, absoluteSourcePath)
	}
	if options.Branch != "" {
		application.logger.Warn(localBranchWarning)
	}
	return absoluteSourcePath, nil, nil
}

// generatePatterns renders the tree and runs the retrying generator. All
// failures downgrade to an empty set; the run proceeds with manual patterns.
func (application *App) generatePatterns(ctx context.Context, localSourcePath string, showTree bool) patterns.Set {
	application.logger.Info(analyzingMessage, zap.String(pathFieldName, localSourcePath))
	renderer := tree.Renderer{MaxDepth: application.settings.MaxDepth}
	treeRendering := renderer.Render(localSourcePath)

	if showTree {
		fmt.Fprintln(application.outputWriter, treeDisplayHeader)
		fmt.Fprint(application.outputWriter, treeRendering)
		fmt.Fprintln(application.outputWriter, treeDisplayFooter)
	}

	backend, backendError := application.backendFactory(application.settings.APIKey, application.settings.Model)
	if backendError != nil {
		application.logger.Warn(backendConstructionWarning, zap.Error(backendError))
		return patterns.Set{}
	}

	application.logger.Info(generatingMessage, zap.String(modelFieldName, application.settings.Model))
	generator := gemini.NewGenerator(backend, application.settings.Retries, application.logger)
	generatedPatterns, outcome := generator.Generate(ctx, treeRendering)
	if outcome != gemini.OutcomeSucceeded {
		application.logger.Warn(noAutoPatternsMessage, zap.String(outcomeFieldName, string(outcome)))
		return patterns.Set{}
	}

	application.displayPatterns(autoPatternsHeader, generatedPatterns)
	return generatedPatterns
}

// executeIngestion invokes the ingestion collaborator with the merged patterns.
func (application *App) executeIngestion(ctx context.Context, localSourcePath string, options RunOptions, mergedPatterns patterns.Set) error {
	outputPath := options.OutputPath
	if outputPath == "" {
		outputPath = repository.DefaultOutputFileName(options.Source)
	}
	absoluteOutputPath, absoluteError := filepath.Abs(outputPath)
	if absoluteError != nil {
		return fmt.Errorf(errorResolveOutputFormat, outputPath, absoluteError)
	}

	var tokenCounter tokenizer.Counter
	if options.CountTokens {
		counter, counterError := tokenizer.NewCounter("")
		if counterError != nil {
			application.logger.Warn(tokenizerConstructionWarning, zap.Error(counterError))
		} else {
			tokenCounter = counter
		}
	}

	application.logger.Info(ingestingMessage, zap.String(pathFieldName, localSourcePath))
	summary, ingestError := application.engine.Ingest(ctx, ingest.Options{
		Root:            localSourcePath,
		Source:          options.Source,
		OutputPath:      absoluteOutputPath,
		MaxFileSize:     options.MaxFileSize,
		IncludePatterns: utils.DeduplicatePatterns(options.IncludePatterns),
		ExcludePatterns: mergedPatterns.Sorted(),
		TokenCounter:    tokenCounter,
	})
	if ingestError != nil {
		return ingestError
	}

	fmt.Fprintf(application.outputWriter, ingestionDoneFormat, summary.OutputPath, summary.Describe())

	if options.CopyToClipboard {
		digestBytes, readError := os.ReadFile(summary.OutputPath)
		if readError != nil {
			application.logger.Warn(clipboardCopyWarning, zap.Error(readError))
		} else if copyError := application.copier.Copy(string(digestBytes)); copyError != nil {
			application.logger.Warn(clipboardCopyWarning, zap.Error(copyError))
		}
	}
	return nil
}

// displayPatterns prints a sorted pattern listing under the given header.
func (application *App) displayPatterns(header string, patternSet patterns.Set) {
	fmt.Fprintln(application.outputWriter, header)
	sortedPatterns := patternSet.Sorted()
	if len(sortedPatterns) == 0 {
		fmt.Fprintln(application.outputWriter, noPatternsLine)
		return
	}
	for _, patternValue := range sortedPatterns {
		fmt.Fprintf(application.outputWriter, patternLineFormat, patternValue)
	}
}

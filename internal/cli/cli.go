// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/temirov/smartingest/internal/app"
	"github.com/temirov/smartingest/internal/config"
	"github.com/temirov/smartingest/internal/ingest"
	"github.com/temirov/smartingest/internal/utils"
)

const (
	rootUse              = "smartingest <source>"
	rootShortDescription = "smartingest prepares a source tree for language model ingestion"
	rootLongDescription  = `smartingest renders a directory tree, asks Gemini which paths are not worth
ingesting, merges the generated exclusion patterns with your own, and writes a
single digest file of the remaining content.
A local path or a git URL (https:// or git@) may be given as the source.
Use --dry-run to preview the merged patterns without writing anything.`
	versionTemplate = "smartingest version: %s\n"

	outputFlagName        = "output"
	outputFlagShorthand   = "o"
	maxSizeFlagName       = "max-size"
	maxSizeFlagShorthand  = "s"
	excludeFlagName       = "exclude-pattern"
	excludeFlagShorthand  = "e"
	includeFlagName       = "include-pattern"
	includeFlagShorthand  = "i"
	branchFlagName        = "branch"
	branchFlagShorthand   = "b"
	apiKeyFlagName        = "api-key"
	modelFlagName         = "gemini-model"
	noAutoExcludeFlagName = "no-auto-exclude"
	maxDepthFlagName      = "max-depth"
	dryRunFlagName        = "dry-run"
	showTreeFlagName      = "show-tree"
	retriesFlagName       = "retries"
	tokensFlagName        = "tokens"
	copyFlagName          = "copy"
	versionFlagName       = "version"

	outputFlagDescription        = "digest output path (default digest-<name>.txt)"
	maxSizeFlagDescription       = "maximum size in bytes of a single ingested file"
	excludeFlagDescription       = "exclude path pattern (repeatable)"
	includeFlagDescription       = "include path pattern overriding exclusions (repeatable)"
	branchFlagDescription        = "branch to clone for remote sources"
	apiKeyFlagDescription        = "Gemini API key (overrides " + config.APIKeyEnvironmentVariable + ")"
	modelFlagDescription         = "Gemini model identifier (overrides " + config.ModelEnvironmentVariable + ")"
	noAutoExcludeFlagDescription = "skip automatic exclusion pattern generation"
	maxDepthFlagDescription      = "maximum directory depth rendered for analysis"
	dryRunFlagDescription        = "show the merged patterns and exit without ingesting"
	showTreeFlagDescription      = "print the analyzed directory tree"
	retriesFlagDescription       = "generation attempts before falling back to manual patterns"
	tokensFlagDescription        = "include an approximate token count in the summary"
	copyFlagDescription          = "copy the digest to the clipboard"
	versionFlagDescription       = "display application version"

	missingSourceMessage = "a source path or repository URL is required"
)

// rootFlagValues collects the parsed flag state for one invocation.
type rootFlagValues struct {
	outputPath      string
	maxFileSize     int64
	excludePatterns []string
	includePatterns []string
	branch          string
	apiKey          string
	model           string
	noAutoExclude   bool
	maxDepth        int
	dryRun          bool
	showTree        bool
	retries         int
	countTokens     bool
	copyToClipboard bool
	showVersion     bool
}

// Execute runs the smartingest application.
func Execute() error {
	rootCommand := CreateRootCommand()
	return rootCommand.Execute()
}

// CreateRootCommand builds the root Cobra command.
func CreateRootCommand() *cobra.Command {
	flagValues := &rootFlagValues{}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if flagValues.showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				_ = command.Help()
				return errors.New(missingSourceMessage)
			}
			return runRoot(command, arguments[0], flagValues)
		},
	}

	commandFlags := rootCommand.Flags()
	commandFlags.StringVarP(&flagValues.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	commandFlags.Int64VarP(&flagValues.maxFileSize, maxSizeFlagName, maxSizeFlagShorthand, ingest.DefaultMaxFileSize, maxSizeFlagDescription)
	commandFlags.StringArrayVarP(&flagValues.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	commandFlags.StringArrayVarP(&flagValues.includePatterns, includeFlagName, includeFlagShorthand, nil, includeFlagDescription)
	commandFlags.StringVarP(&flagValues.branch, branchFlagName, branchFlagShorthand, "", branchFlagDescription)
	commandFlags.StringVar(&flagValues.apiKey, apiKeyFlagName, "", apiKeyFlagDescription)
	commandFlags.StringVar(&flagValues.model, modelFlagName, "", modelFlagDescription)
	commandFlags.BoolVar(&flagValues.noAutoExclude, noAutoExcludeFlagName, false, noAutoExcludeFlagDescription)
	commandFlags.IntVar(&flagValues.maxDepth, maxDepthFlagName, config.DefaultMaxDepth, maxDepthFlagDescription)
	commandFlags.BoolVar(&flagValues.dryRun, dryRunFlagName, false, dryRunFlagDescription)
	commandFlags.BoolVar(&flagValues.showTree, showTreeFlagName, false, showTreeFlagDescription)
	commandFlags.IntVar(&flagValues.retries, retriesFlagName, config.DefaultRetries, retriesFlagDescription)
	commandFlags.BoolVar(&flagValues.countTokens, tokensFlagName, false, tokensFlagDescription)
	commandFlags.BoolVar(&flagValues.copyToClipboard, copyFlagName, false, copyFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&flagValues.showVersion, versionFlagName, false, versionFlagDescription)

	return rootCommand
}

// runRoot resolves configuration and delegates to the orchestrator.
func runRoot(command *cobra.Command, source string, flagValues *rootFlagValues) error {
	settings, loadError := config.Load(config.LoadOptions{
		APIKeyOverride: flagValues.apiKey,
		ModelOverride:  flagValues.model,
		MaxDepth:       flagValues.maxDepth,
		Retries:        flagValues.retries,
	})
	if loadError != nil {
		return loadError
	}

	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer logger.Sync()

	application := app.New(settings, logger, ingest.NewDigestEngine(logger)).
		WithOutputWriter(command.OutOrStdout())

	return application.Run(command.Context(), app.RunOptions{
		Source:          source,
		OutputPath:      flagValues.outputPath,
		MaxFileSize:     flagValues.maxFileSize,
		ExcludePatterns: flagValues.excludePatterns,
		IncludePatterns: flagValues.includePatterns,
		Branch:          flagValues.branch,
		NoAutoExclude:   flagValues.noAutoExclude,
		DryRun:          flagValues.dryRun,
		ShowTree:        flagValues.showTree,
		CountTokens:     flagValues.countTokens,
		CopyToClipboard: flagValues.copyToClipboard,
	})
}

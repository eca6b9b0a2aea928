// Package commands implements the use cases behind the dumpo CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/dumpo/internal/config"
	"github.com/temirov/dumpo/internal/dump"
	"github.com/temirov/dumpo/internal/filter"
	"github.com/temirov/dumpo/internal/selector"
	"github.com/temirov/dumpo/internal/services/clipboard"
	"github.com/temirov/dumpo/internal/tokenizer"
	"github.com/temirov/dumpo/internal/utils"
)

const (
	errorAbsolutePathFormat  = "abs failed for '%s': %w"
	errorResolveLinksFormat  = "resolve '%s': %w"
	errorRootNotDirFormat    = "root '%s' is not a directory"
	errorStatFormat          = "stat failed for '%s': %w"
	errorClipboardFormat     = "copy artifact to clipboard: %w"
	errorStdoutFormat        = "write artifact to stdout: %w"
	errorDebugArtifactFormat = "write debug artifact %s: %w"
	errorGitignoreFormat     = "load gitignore: %w"
	warningTokenCountMessage = "token estimate unavailable"
	packSummaryMessage       = "packed"
	debugArtifactPermissions = 0o644
)

var (
	// ErrNoOutputSink is returned when neither stdout nor the clipboard is selected.
	ErrNoOutputSink = errors.New("no output sink selected; enable --stdout or --clipboard")
	// ErrClipboardNotConfigured is returned when clipboard delivery has no Copier.
	ErrClipboardNotConfigured = errors.New("clipboard delivery requested without a clipboard service")
)

// CounterFactory creates a token counter for a model.
type CounterFactory func(tokenizer.Config) (tokenizer.Counter, string, error)

// PackOptions describes a single pack invocation.
type PackOptions struct {
	Path     string
	Settings config.PackSettings
	// Debug also writes the artifact to .dumpo.debug.md in the root.
	Debug bool
	// ReadConcurrency bounds concurrent file reads. Zero means one per CPU.
	ReadConcurrency int
}

// PackDependencies are the side-effecting collaborators of RunPack.
type PackDependencies struct {
	Clipboard      clipboard.Copier
	Stdout         io.Writer
	Logger         *zap.Logger
	CounterFactory CounterFactory
}

// PackResult summarizes a completed pack.
type PackResult struct {
	Root              string
	Content           []byte
	Files             int
	TruncatedFiles    int
	SkippedBinary     int
	DocumentTruncated bool
	Filtered          bool
	Tokens            int
	TokensCounted     bool
	TokenModel        string
	DebugPath         string
}

// ResolveRoot returns the absolute, symlink-free path of a directory.
func ResolveRoot(path string) (string, error) {
	absolutePath, absoluteErr := filepath.Abs(path)
	if absoluteErr != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, path, absoluteErr)
	}
	resolvedPath, resolveErr := filepath.EvalSymlinks(absolutePath)
	if resolveErr != nil {
		return "", fmt.Errorf(errorResolveLinksFormat, path, resolveErr)
	}
	info, statErr := os.Stat(resolvedPath)
	if statErr != nil {
		return "", fmt.Errorf(errorStatFormat, path, statErr)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorRootNotDirFormat, path)
	}
	return resolvedPath, nil
}

// RunPack packs the directory at options.Path and delivers the artifact to the
// selected sinks.
func RunPack(ctx context.Context, options PackOptions, dependencies PackDependencies) (PackResult, error) {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := options.Settings

	root, rootErr := ResolveRoot(options.Path)
	if rootErr != nil {
		return PackResult{}, rootErr
	}
	if !settings.Stdout && !settings.Clipboard {
		return PackResult{}, ErrNoOutputSink
	}

	fileSelector, selectorErr := buildSelector(root, settings)
	if selectorErr != nil {
		return PackResult{}, selectorErr
	}

	built, buildErr := dump.Build(ctx, dump.Options{
		Root:            root,
		MaxFileBytes:    settings.MaxFileBytes,
		MaxTotalBytes:   settings.MaxTotalBytes,
		IncludeHidden:   settings.IncludeHidden,
		Selector:        fileSelector,
		ReadConcurrency: options.ReadConcurrency,
		Logger:          logger,
	})
	if buildErr != nil {
		return PackResult{}, buildErr
	}

	result := PackResult{
		Root:              root,
		Content:           built.Content,
		Files:             built.Files,
		TruncatedFiles:    built.TruncatedFiles,
		SkippedBinary:     built.SkippedBinary,
		DocumentTruncated: built.DocumentTruncated,
		Filtered:          fileSelector.HasPatterns(),
	}

	if deliverErr := deliver(built.Content, settings, dependencies); deliverErr != nil {
		return PackResult{}, deliverErr
	}

	if options.Debug {
		debugPath := filepath.Join(root, filter.DebugArtifactName)
		if writeErr := os.WriteFile(debugPath, built.Content, debugArtifactPermissions); writeErr != nil {
			return PackResult{}, fmt.Errorf(errorDebugArtifactFormat, debugPath, writeErr)
		}
		result.DebugPath = debugPath
	}

	if settings.Tokens {
		countTokens(&result, settings.Model, dependencies.CounterFactory, logger)
	}

	logSummary(logger, result, settings)
	return result, nil
}

func buildSelector(root string, settings config.PackSettings) (*selector.Selector, error) {
	var selectorOptions []selector.Option
	if settings.UseGitignore {
		matcher, loadErr := config.LoadGitignore(root)
		if loadErr != nil {
			return nil, fmt.Errorf(errorGitignoreFormat, loadErr)
		}
		if matcher != nil {
			selectorOptions = append(selectorOptions, selector.WithIgnoreMatcher(matcher))
		}
	}
	return selector.New(settings.Include, settings.Exclude, selectorOptions...)
}

func deliver(content []byte, settings config.PackSettings, dependencies PackDependencies) error {
	if settings.Clipboard {
		if dependencies.Clipboard == nil {
			return ErrClipboardNotConfigured
		}
		if copyErr := dependencies.Clipboard.Copy(string(content)); copyErr != nil {
			return fmt.Errorf(errorClipboardFormat, copyErr)
		}
	}
	if settings.Stdout {
		stdout := dependencies.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		if _, writeErr := stdout.Write(content); writeErr != nil {
			return fmt.Errorf(errorStdoutFormat, writeErr)
		}
	}
	return nil
}

func countTokens(result *PackResult, model string, factory CounterFactory, logger *zap.Logger) {
	if factory == nil {
		factory = tokenizer.NewCounter
	}
	counter, resolvedModel, counterErr := factory(tokenizer.Config{Model: model})
	if counterErr != nil {
		logger.Warn(warningTokenCountMessage, zap.String("model", model), zap.Error(counterErr))
		return
	}
	counted, countErr := tokenizer.CountBytes(counter, result.Content)
	if countErr != nil {
		logger.Warn(warningTokenCountMessage, zap.String("model", resolvedModel), zap.Error(countErr))
		return
	}
	result.Tokens = counted.Tokens
	result.TokensCounted = counted.Counted
	result.TokenModel = resolvedModel
}

func logSummary(logger *zap.Logger, result PackResult, settings config.PackSettings) {
	fields := []zap.Field{
		zap.String("root", result.Root),
		zap.Int("files", result.Files),
		zap.Int("truncated_files", result.TruncatedFiles),
		zap.Int("skipped_binary", result.SkippedBinary),
		zap.String("size", utils.FormatFileSize(len(result.Content))),
		zap.Bool("max_total_bytes_reached", result.DocumentTruncated),
		zap.Bool("filtered", result.Filtered),
		zap.Bool("clipboard", settings.Clipboard),
		zap.Bool("stdout", settings.Stdout),
	}
	if result.TokensCounted {
		fields = append(fields, zap.Int("tokens", result.Tokens), zap.String("model", result.TokenModel))
	}
	if result.DebugPath != "" {
		fields = append(fields, zap.String("debug_artifact", result.DebugPath))
	}
	logger.Info(packSummaryMessage, fields...)
}

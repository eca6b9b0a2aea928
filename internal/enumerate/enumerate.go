// Package enumerate walks a pack root and returns the eligible files in a
// deterministic order.
package enumerate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dumpo/internal/filter"
	"github.com/temirov/dumpo/internal/selector"
	"github.com/temirov/dumpo/internal/types"
)

const (
	errorRootStatFormat     = "stat root %s: %w"
	errorRootNotDirFormat   = "root %s is not a directory"
	errorRootWalkFormat     = "walk root %s: %w"
	debugAccessMessage      = "skipping unreadable entry"
	debugPrunedMessage      = "pruned directory"
	debugSkippedMessage     = "skipped file"
	debugNotSelectedMessage = "file not selected"
	debugIrregularMessage   = "skipped non-regular file"
)

// Option customizes Collect.
type Option func(*collector)

// WithLogger routes debug messages about skipped entries to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(state *collector) {
		if logger != nil {
			state.logger = logger
		}
	}
}

type collector struct {
	root          string
	includeHidden bool
	selector      *selector.Selector
	logger        *zap.Logger
	entries       []types.Entry
}

// Collect walks root and returns every file that passes the static filter
// rules and then fileSelector, sorted by relative path in byte order. A nil
// selector accepts everything. Symbolic links are never followed and errors on
// individual entries are skipped; only an unusable root is reported.
func Collect(root string, includeHidden bool, fileSelector *selector.Selector, options ...Option) ([]types.Entry, error) {
	rootInformation, statError := os.Stat(root)
	if statError != nil {
		return nil, fmt.Errorf(errorRootStatFormat, root, statError)
	}
	if !rootInformation.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirFormat, root)
	}

	state := &collector{
		root:          filepath.Clean(root),
		includeHidden: includeHidden,
		selector:      fileSelector,
		logger:        zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(state)
		}
	}

	if walkError := filepath.WalkDir(state.root, state.visit); walkError != nil {
		return nil, fmt.Errorf(errorRootWalkFormat, root, walkError)
	}

	slices.SortFunc(state.entries, func(left, right types.Entry) int {
		return strings.Compare(left.RelativePath, right.RelativePath)
	})
	return state.entries, nil
}

func (state *collector) visit(walkedPath string, directoryEntry fs.DirEntry, accessError error) error {
	isRoot := walkedPath == state.root
	if accessError != nil {
		if isRoot {
			return accessError
		}
		state.logger.Debug(debugAccessMessage, zap.String("path", walkedPath), zap.Error(accessError))
		if directoryEntry != nil && directoryEntry.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if isRoot {
		return nil
	}

	entryName := directoryEntry.Name()
	if directoryEntry.IsDir() {
		if filter.ShouldPruneDirectory(entryName, state.includeHidden) {
			state.logger.Debug(debugPrunedMessage, zap.String("path", walkedPath))
			return filepath.SkipDir
		}
		return nil
	}

	if !directoryEntry.Type().IsRegular() {
		state.logger.Debug(debugIrregularMessage, zap.String("path", walkedPath), zap.Stringer("mode", directoryEntry.Type()))
		return nil
	}

	if reason := filter.ClassifyFile(entryName, state.includeHidden); reason != filter.SkipReasonNone {
		state.logger.Debug(debugSkippedMessage, zap.String("path", walkedPath), zap.Stringer("reason", reason), zap.Bool("unconditional", reason.IsUnconditional()))
		return nil
	}

	relativePath, relativeError := filepath.Rel(state.root, walkedPath)
	if relativeError != nil {
		state.logger.Debug(debugAccessMessage, zap.String("path", walkedPath), zap.Error(relativeError))
		return nil
	}
	relativePath = filepath.ToSlash(relativePath)

	if !state.selector.Matches(relativePath) {
		state.logger.Debug(debugNotSelectedMessage, zap.String("path", relativePath))
		return nil
	}

	state.entries = append(state.entries, types.Entry{
		RelativePath: relativePath,
		AbsolutePath: walkedPath,
	})
	return nil
}

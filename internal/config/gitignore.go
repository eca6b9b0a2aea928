package config

import (
	"fmt"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/temirov/dumpo/internal/utils"
)

// LoadGitignore compiles the .gitignore at the root of the pack. It returns a
// nil matcher when the file does not exist. Nested .gitignore files are not
// consulted.
func LoadGitignore(rootDirectoryPath string) (*gitignore.GitIgnore, error) {
	gitIgnoreFilePath := filepath.Join(rootDirectoryPath, utils.GitIgnoreFileName)
	info, statErr := os.Stat(gitIgnoreFilePath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", gitIgnoreFilePath, statErr)
	}
	if info.IsDir() {
		return nil, nil
	}
	matcher, compileErr := gitignore.CompileIgnoreFile(gitIgnoreFilePath)
	if compileErr != nil {
		return nil, fmt.Errorf("loading %s from %s: %w", utils.GitIgnoreFileName, rootDirectoryPath, compileErr)
	}
	return matcher, nil
}

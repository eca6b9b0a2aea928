package enumerate

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/dumpo/internal/selector"
	"github.com/temirov/dumpo/internal/types"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(t, os.WriteFile(absolutePath, []byte(content), 0o644))
	}
}

func relativePaths(entries []types.Entry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.RelativePath)
	}
	return paths
}

func TestCollectIsDeterministicAndLexicographic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.rs":     "z",
		"a.rs":     "a",
		"dir/c.rs": "c",
		"dir/b.rs": "b",
		"B.rs":     "upper",
	})

	first, firstError := Collect(root, true, nil)
	require.NoError(t, firstError)
	second, secondError := Collect(root, true, selector.MatchAll())
	require.NoError(t, secondError)

	expected := []string{"B.rs", "a.rs", "dir/b.rs", "dir/c.rs", "z.rs"}
	assert.Equal(t, expected, relativePaths(first))
	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(root, "dir", "b.rs"), first[2].AbsolutePath)
}

func TestCollectAppliesStaticRulesBeforeSelector(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".env":                "SECRET=1",
		".env.local":          "SECRET=2",
		"keys/server.pem":     "pem",
		"src/lib.rs":          "lib",
		"node_modules/x.js":   "dep",
		".git/config":         "git",
		"target/debug/out.rs": "build",
		"LICENSE":             "mit",
	})

	includeEverything, selectorError := selector.New([]string{".env", ".env.*", "**"}, nil)
	require.NoError(t, selectorError)

	entries, collectError := Collect(root, true, includeEverything, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, collectError)
	assert.Equal(t, []string{"src/lib.rs"}, relativePaths(entries))
}

func TestCollectHiddenGating(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".hidden.txt":       "hidden",
		".config/tool.toml": "cfg",
		"visible/.dotfile":  "dot",
		"visible/plain.txt": "plain",
	})

	withoutHidden, withoutError := Collect(root, false, nil)
	require.NoError(t, withoutError)
	assert.Equal(t, []string{"visible/plain.txt"}, relativePaths(withoutHidden))

	withHidden, withError := Collect(root, true, nil)
	require.NoError(t, withError)
	assert.Equal(t, []string{".config/tool.toml", ".hidden.txt", "visible/.dotfile", "visible/plain.txt"}, relativePaths(withHidden))
}

func TestCollectSelectorNarrowsResults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/lib.rs":    "lib",
		"src/secret.rs": "secret",
		"docs/guide.md": "guide",
	})

	fileSelector, selectorError := selector.New([]string{"src/**"}, []string{"**/secret.rs"})
	require.NoError(t, selectorError)

	entries, collectError := Collect(root, false, fileSelector)
	require.NoError(t, collectError)
	assert.Equal(t, []string{"src/lib.rs"}, relativePaths(entries))
}

func TestCollectDoesNotFollowSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, map[string]string{"real.txt": "real"})
	writeTree(t, outside, map[string]string{"escaped.txt": "outside"})
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked-dir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "linked.txt")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	entries, collectError := Collect(root, true, nil)
	require.NoError(t, collectError)
	assert.Equal(t, []string{"real.txt"}, relativePaths(entries))
}

func TestCollectSwallowsUnreadableDirectories(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.txt":          "ok",
		"locked/gone.txt": "gone",
	})
	lockedDirectory := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(lockedDirectory, 0o000))
	t.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	entries, collectError := Collect(root, false, nil)
	require.NoError(t, collectError)
	assert.Equal(t, []string{"ok.txt"}, relativePaths(entries))
}

func TestCollectRejectsMissingOrFileRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, missingError := Collect(filepath.Join(root, "missing"), false, nil)
	assert.Error(t, missingError)

	writeTree(t, root, map[string]string{"file.txt": "x"})
	_, fileError := Collect(filepath.Join(root, "file.txt"), false, nil)
	assert.Error(t, fileError)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/dumpo/internal/utils"
)

func writeConfigFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []struct {
		name          string
		globalContent string
		localContent  string
		explicit      string
		nestedStart   bool
		disabled      bool
		expected      PackSettings
	}{
		{
			name:          "local_overrides_global",
			globalContent: "max_file_bytes = 10\nmodel = \"gpt-4\"\ntokens = true\n",
			localContent:  "max_file_bytes = 20\ninclude = [\"src/**\"]\n",
			expected: PackSettings{
				MaxFileBytes:  20,
				MaxTotalBytes: DefaultMaxTotalBytes,
				Include:       []string{"src/**"},
				Tokens:        true,
				Model:         "gpt-4",
			},
		},
		{
			name:          "ancestor_configuration_is_found",
			globalContent: "",
			localContent:  "max_total_bytes = 5000\ngitignore = true\n",
			nestedStart:   true,
			expected: PackSettings{
				MaxFileBytes:  DefaultMaxFileBytes,
				MaxTotalBytes: 5000,
				UseGitignore:  true,
				Model:         DefaultModel,
			},
		},
		{
			name:          "explicit_path_replaces_local",
			globalContent: "include_hidden = true\n",
			localContent:  "max_file_bytes = 20\n",
			explicit:      "custom.toml",
			expected: PackSettings{
				MaxFileBytes:  7,
				MaxTotalBytes: DefaultMaxTotalBytes,
				IncludeHidden: true,
				Exclude:       []string{"**/*.log"},
				Model:         DefaultModel,
			},
		},
		{
			name:          "disabled_ignores_everything",
			globalContent: "max_file_bytes = 10\n",
			localContent:  "max_total_bytes = 20\n",
			disabled:      true,
			expected: PackSettings{
				MaxFileBytes:  DefaultMaxFileBytes,
				MaxTotalBytes: DefaultMaxTotalBytes,
				Model:         DefaultModel,
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			if testCase.globalContent != "" {
				writeConfigFile(t, filepath.Join(homeDir, utils.GlobalConfigDirectoryName, utils.ConfigFileName), testCase.globalContent)
			}
			if testCase.localContent != "" {
				writeConfigFile(t, filepath.Join(workingDir, utils.ConfigFileName), testCase.localContent)
			}
			explicitPath := ""
			if testCase.explicit != "" {
				explicitPath = filepath.Join(workingDir, testCase.explicit)
				writeConfigFile(t, explicitPath, "max_file_bytes = 7\nexclude = [\"**/*.log\", \"**/*.log\"]\n")
			}
			startDirectory := workingDir
			if testCase.nestedStart {
				startDirectory = filepath.Join(workingDir, "a", "b")
				if err := os.MkdirAll(startDirectory, 0o755); err != nil {
					t.Fatalf("create nested dir: %v", err)
				}
			}

			loaded, err := LoadApplicationConfiguration(LoadOptions{
				StartDirectory:   startDirectory,
				ExplicitFilePath: explicitPath,
				Disabled:         testCase.disabled,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			defaults := DefaultPackSettings()
			expected := testCase.expected
			expected.Stdout = defaults.Stdout
			expected.Clipboard = defaults.Clipboard
			actual := loaded.ApplyTo(defaults)
			if !reflect.DeepEqual(actual, expected) {
				t.Fatalf("expected %+v, got %+v", expected, actual)
			}
		})
	}
}

func TestLoadApplicationConfigurationRejectsInvalidFiles(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "zero_file_limit", content: "max_file_bytes = 0\n"},
		{name: "negative_total_limit", content: "max_total_bytes = -5\n"},
		{name: "blank_model", content: "model = \"  \"\n"},
		{name: "unknown_key", content: "max_bytes = 10\n"},
		{name: "malformed_toml", content: "max_file_bytes = = 3\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)
			writeConfigFile(t, filepath.Join(workingDir, utils.ConfigFileName), testCase.content)

			_, err := LoadApplicationConfiguration(LoadOptions{StartDirectory: workingDir})
			if err == nil {
				t.Fatalf("expected error for %q", testCase.content)
			}
		})
	}
}

func TestValidateWrapsInvalidConfiguration(t *testing.T) {
	zero := 0
	err := PackConfiguration{MaxTotalBytes: &zero}.Validate()
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	positive := 1
	if validErr := (PackConfiguration{MaxTotalBytes: &positive}).Validate(); validErr != nil {
		t.Fatalf("unexpected validation error: %v", validErr)
	}
}

func TestLoadApplicationConfigurationRequiresExplicitFile(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)

	_, err := LoadApplicationConfiguration(LoadOptions{
		StartDirectory:   t.TempDir(),
		ExplicitFilePath: filepath.Join(t.TempDir(), "missing.toml"),
	})
	if err == nil {
		t.Fatalf("expected error for missing explicit configuration")
	}
}

func TestMergeKeepsUnsetFields(t *testing.T) {
	ten := 10
	hidden := true
	base := PackConfiguration{MaxFileBytes: &ten, IncludeHidden: &hidden, Exclude: []string{"a"}}
	merged := base.Merge(PackConfiguration{Exclude: []string{" b ", "b", ""}})

	if merged.MaxFileBytes == nil || *merged.MaxFileBytes != 10 {
		t.Fatalf("expected max file bytes to survive merge")
	}
	if merged.IncludeHidden == nil || !*merged.IncludeHidden {
		t.Fatalf("expected include_hidden to survive merge")
	}
	if !reflect.DeepEqual(merged.Exclude, []string{"b"}) {
		t.Fatalf("unexpected exclude list %v", merged.Exclude)
	}
}

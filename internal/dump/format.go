package dump

import (
	"path"
	"strings"
)

const (
	documentTitle        = "# dumpo pack"
	rootLinePrefix       = "- root: "
	headingPrefix        = "## "
	fenceMarker          = "```"
	closingFence         = "```\n\n"
	closingFenceBlock    = newline + closingFence
	blankLineSuffix      = "\n\n"
	newline              = "\n"
	fileTruncatedMarker  = "(file truncated)\n\n"
	documentTruncatedTag = "\n... (truncated: max_total_bytes reached)\n"
	replacementCharacter = "�"
)

// Footer is appended when the total byte ceiling stops the document early.
const Footer = documentTruncatedTag

// FileTruncatedMarker follows the closing fence of a file cut at MaxFileBytes.
const FileTruncatedMarker = fileTruncatedMarker

var languageHints = map[string]string{
	"rs":    "rust",
	"go":    "go",
	"toml":  "toml",
	"md":    "markdown",
	"yml":   "yaml",
	"yaml":  "yaml",
	"json":  "json",
	"py":    "python",
	"sh":    "bash",
	"bash":  "bash",
	"js":    "javascript",
	"ts":    "typescript",
	"tsx":   "tsx",
	"jsx":   "jsx",
	"html":  "html",
	"css":   "css",
	"sql":   "sql",
	"c":     "c",
	"h":     "c",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cc":    "cpp",
	"java":  "java",
	"rb":    "ruby",
	"proto": "protobuf",
}

// LanguageHint returns the fence info string for a relative path, or an empty
// string when the extension is unknown.
func LanguageHint(relativePath string) string {
	extension := strings.TrimPrefix(path.Ext(relativePath), ".")
	if extension == "" {
		return ""
	}
	return languageHints[strings.ToLower(extension)]
}

func headerBlock(root string) string {
	return documentTitle + newline + rootLinePrefix + root + newline + newline
}

func filePrefix(relativePath string) string {
	return headingPrefix + relativePath + blankLineSuffix + fenceMarker + LanguageHint(relativePath) + newline
}

// footerWithin clips the footer so that it never exceeds ceiling bytes.
func footerWithin(ceiling int) string {
	if ceiling <= 0 {
		return ""
	}
	if ceiling < len(Footer) {
		return Footer[:ceiling]
	}
	return Footer
}

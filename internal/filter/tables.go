package filter

// Static exclusion tables. They form the non-overridable baseline; caller
// supplied patterns can only narrow the result further.

// prunedDirectoryNames are never descended into, regardless of the hidden flag.
var prunedDirectoryNames = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"target":       {},
	"node_modules": {},
}

// secretFileNames are always skipped. No include pattern can restore them.
var secretFileNames = map[string]struct{}{
	".env": {},
}

// secretFilePrefixes are always skipped. No include pattern can restore them.
var secretFilePrefixes = []string{
	".env.",
}

// secretExtensions hold private key and certificate bundle extensions.
var secretExtensions = map[string]struct{}{
	"pem": {},
	"key": {},
	"p12": {},
	"pfx": {},
}

// DebugArtifactName is the file name the pack command writes its debug copy to.
const DebugArtifactName = ".dumpo.debug.md"

// reservedFileNames cover license, build metadata, lockfiles and our own output.
var reservedFileNames = map[string]struct{}{
	"LICENSE":           {},
	"Makefile":          {},
	"Cargo.lock":        {},
	"go.sum":            {},
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"poetry.lock":       {},
	DebugArtifactName:   {},
}

// excludedExtensions hold binary, media, archive and compiled artifact extensions.
var excludedExtensions = map[string]struct{}{
	"png":   {},
	"jpg":   {},
	"jpeg":  {},
	"gif":   {},
	"webp":  {},
	"pdf":   {},
	"zip":   {},
	"gz":    {},
	"bz2":   {},
	"xz":    {},
	"7z":    {},
	"woff":  {},
	"woff2": {},
	"ttf":   {},
	"otf":   {},
	"mp4":   {},
	"mov":   {},
	"mp3":   {},
	"wav":   {},
	"bin":   {},
	"exe":   {},
	"dll":   {},
	"so":    {},
	"dylib": {},
}

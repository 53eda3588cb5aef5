package scan

import (
	"path/filepath"
	"strings"
)

// DetectLanguage determines the language identifier from file extension and path.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	langMap := map[string]string{
		".go":    "go",
		".py":    "python",
		".js":    "javascript",
		".jsx":   "javascript",
		".ts":    "typescript",
		".tsx":   "typescript",
		".rs":    "rust",
		".java":  "java",
		".kt":    "kotlin",
		".rb":    "ruby",
		".php":   "php",
		".c":     "c",
		".h":     "c",
		".cpp":   "cpp",
		".cc":    "cpp",
		".hpp":   "cpp",
		".cs":    "csharp",
		".swift": "swift",
		".lua":   "lua",
		".sql":   "sql",
		".sh":    "shell",
		".bash":  "shell",
		".yaml":  "yaml",
		".yml":   "yaml",
		".json":  "json",
		".html":  "html",
		".css":   "css",
		".md":    "markdown",
		".http":  "http",
		".toml":  "toml",
		".txt":   "text",
	}

	if lang, ok := langMap[ext]; ok {
		return lang
	}

	base := filepath.Base(path)
	switch base {
	case "Dockerfile", "dockerfile":
		return "dockerfile"
	case "Makefile", "makefile", "GNUmakefile":
		return "makefile"
	}

	return "unknown"
}

// sourceLanguages are languages whose comments can carry annotations.
var sourceLanguages = map[string]bool{
	"go": true, "python": true, "javascript": true, "typescript": true,
	"rust": true, "java": true, "kotlin": true, "ruby": true, "php": true,
	"c": true, "cpp": true, "csharp": true, "swift": true, "lua": true,
	"sql": true, "shell": true, "html": true, "css": true,
	"dockerfile": true, "makefile": true,
}

// IsSourceLanguage reports whether files of the given language are scanned
// for annotations.
func IsSourceLanguage(lang string) bool {
	return sourceLanguages[lang]
}

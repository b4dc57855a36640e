package index

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/slateview/storyindex/internal/specifier"
)

var nonAlphanum = regexp.MustCompile(`[^a-z0-9]+`)

// sanitize lowercases a title or name and collapses every run of
// non-alphanumeric characters into a single dash.
func sanitize(s string) string {
	s = nonAlphanum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// toID derives the globally unique entry id from the grouping key (meta id
// or title) and the entry name.
func toID(titleOrMetaID, name string) string {
	return sanitize(titleOrMetaID) + "--" + sanitize(name)
}

// storyNameFromExportName converts an export name like "primaryButton" or
// "primary_button" into a display name like "Primary Button".
func storyNameFromExportName(exportName string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(exportName)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			current.WriteRune(r)
		case unicode.IsDigit(r) && i > 0 && !unicode.IsDigit(runes[i-1]):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// storyFileSuffixes are stripped from file base names when deriving titles.
var storyFileSuffixes = []string{".stories", ".story", ".docs"}

// autoTitle derives a slash-delimited grouping title from the file's path
// relative to its specifier directory. The file extension and any story
// suffix are stripped; an "index" base name, or a base name repeating its
// parent directory (Button/Button.stories.json), is dropped.
func autoTitle(spec specifier.Specifier, workingDir, absPath string) string {
	dir := spec.AbsDirectory(workingDir)
	rel, err := filepath.Rel(dir, absPath)
	if err != nil {
		rel = filepath.Base(absPath)
	}
	rel = filepath.ToSlash(rel)

	parts := strings.Split(rel, "/")
	base := parts[len(parts)-1]
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range storyFileSuffixes {
		base = strings.TrimSuffix(base, suffix)
	}
	parts = parts[:len(parts)-1]

	if base != "" && base != "index" && (len(parts) == 0 || parts[len(parts)-1] != base) {
		parts = append(parts, base)
	}

	title := strings.Join(parts, "/")
	if spec.TitlePrefix != "" {
		if title == "" {
			return spec.TitlePrefix
		}
		return spec.TitlePrefix + "/" + title
	}
	return title
}

// userOrAutoTitle prefers an explicitly authored title; the title prefix
// only applies to automatically derived ones.
func userOrAutoTitle(userTitle string, spec specifier.Specifier, workingDir, absPath string) string {
	if userTitle != "" {
		return userTitle
	}
	return autoTitle(spec, workingDir, absPath)
}

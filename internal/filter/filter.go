// Package filter selects files based on include/exclude patterns using
// find -path semantics: * and ? match any character including /, [...] is a
// character class ([!...] negates), \ escapes. Excludes always win; no
// includes means "match all".
package filter

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

// Matcher pre-compiles patterns for reuse across many paths.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the given patterns into a reusable matcher.
func NewMatcher(patterns []string) (*Matcher, error) {
	matcher := &Matcher{patterns: make([]*regexp.Regexp, len(patterns))}

	for idx, pattern := range patterns {
		re, err := compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}

		matcher.patterns[idx] = re
	}

	return matcher, nil
}

// MatchAny reports whether path matches any of the compiled patterns.
func (m *Matcher) MatchAny(path string) bool {
	for _, re := range m.patterns {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}

// compile converts a find -path glob into an anchored regexp.
func compile(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder

	sb.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '\\':
			if i+1 >= len(pattern) {
				return nil, fmt.Errorf("trailing backslash in pattern %q", pattern)
			}

			i++
			sb.WriteString(regexp.QuoteMeta(string(pattern[i])))
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character class")
			}

			class := pattern[i : i+end+2]
			// fnmatch negation: [!...] becomes [^...]
			if len(class) > 2 && class[1] == '!' {
				class = "[^" + class[2:]
			}

			sb.WriteString(class)
			i += end + 1
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")

	return regexp.Compile(sb.String())
}

// LoadPatterns reads a JSONC file and returns the parsed glob patterns.
func LoadPatterns(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user-supplied config
	if err != nil {
		return nil, fmt.Errorf("reading patterns file %q: %w", path, err)
	}

	clean := jsonc.ToJSONInPlace(data)

	var patterns []string
	if err := json.Unmarshal(clean, &patterns); err != nil {
		return nil, fmt.Errorf("parsing patterns file %q: %w", path, err)
	}

	return patterns, nil
}

// normalize strips leading "./" from patterns so they match cleaned paths.
func normalize(patterns []string) []string {
	for i, p := range patterns {
		patterns[i] = strings.TrimPrefix(p, "./")
	}

	return patterns
}

// Resolve takes positional args (files or directories) and include/exclude
// patterns. Explicit files bypass filtering; directories are walked and
// filtered. hasIncludes indicates whether include filtering was requested at
// all, regardless of whether the pattern list is empty.
// Returns matched files and the total number of candidates scanned.
func Resolve(args, includes, excludes []string, hasIncludes bool) (files []string, scanned int, err error) {
	for _, arg := range args {
		if err := validatePath(arg); err != nil {
			return nil, 0, err
		}
	}

	inc, err := NewMatcher(normalize(includes))
	if err != nil {
		return nil, 0, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := NewMatcher(normalize(excludes))
	if err != nil {
		return nil, 0, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			// Explicit file: bypass filtering.
			scanned++

			add(arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			scanned++

			clean := filepath.ToSlash(filepath.Clean(path))

			included := !hasIncludes || inc.MatchAny(clean)
			if included && !exc.MatchAny(clean) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("no files matched the provided patterns: %v", args)
	}

	return files, scanned, nil
}

// validatePath rejects paths that escape the current working directory.
func validatePath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed: %q", path)
	}

	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("paths must be within the current working directory: %q", path)
	}

	return nil
}

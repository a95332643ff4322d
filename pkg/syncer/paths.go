package syncer

import (
	"regexp"
	"strings"
)

var (
	githubURLPrefix = regexp.MustCompile(`^https?://(www\.)?github\.com/`)
	gitSuffix       = regexp.MustCompile(`\.git$`)
)

// SanitizeRepo normalizes a GitHub URL or "owner/repo" string into
// "owner/repo". The result is not validated; a malformed identifier surfaces
// later as an API error.
func SanitizeRepo(repo string) string {
	if repo == "" {
		return ""
	}
	repo = githubURLPrefix.ReplaceAllString(repo, "")
	repo = gitSuffix.ReplaceAllString(repo, "")
	return strings.Trim(strings.TrimSpace(repo), "/")
}

// FilterPaths keeps the paths containing keyword, compared case-insensitively,
// in their original order. An empty keyword or "all" keeps every path.
func FilterPaths(paths []string, keyword string) []string {
	if keyword == "" || strings.EqualFold(keyword, "all") {
		return paths
	}

	needle := strings.ToLower(keyword)
	filtered := []string{}
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// RemotePath derives the repository path for a local path: backslashes
// become forward slashes and leading separators are dropped.
func RemotePath(localPath string) string {
	return strings.TrimLeft(strings.ReplaceAll(localPath, `\`, "/"), "/")
}

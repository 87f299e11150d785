package projects

import "strings"

func SplitRepoFullName(fullName string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}

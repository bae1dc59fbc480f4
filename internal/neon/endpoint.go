package neon

import (
	"fmt"
	"strings"
)

// BranchHost возвращает хост ветки: первый endpoint, а если его нет, хост
// выводится из текущего NEON_DB_URL по схеме <project>-<branchID>.<region>.<provider>.<domain>.
func BranchHost(b Branch, currentDBURL string) (string, error) {
	for _, ep := range b.Endpoints {
		if ep.Host != "" {
			return ep.Host, nil
		}
	}

	host, err := HostFromDBURL(currentDBURL)
	if err != nil {
		return "", fmt.Errorf("derive endpoint for branch %s: %w", b.Name, err)
	}
	project, rest, ok := strings.Cut(host, ".")
	if !ok || strings.Count(rest, ".") < 2 {
		return "", fmt.Errorf("derive endpoint for branch %s: unexpected host %q", b.Name, host)
	}
	return project + "-" + b.ID + "." + rest, nil
}

// HostFromDBURL достает хост из jdbc:postgresql://host[:port]/db?... или postgres://.
func HostFromDBURL(dbURL string) (string, error) {
	_, after, ok := strings.Cut(dbURL, "postgresql://")
	if !ok {
		_, after, ok = strings.Cut(dbURL, "postgres://")
	}
	if !ok {
		return "", fmt.Errorf("NEON_DB_URL %q is not a postgresql url", dbURL)
	}
	if _, hostPart, found := strings.Cut(after, "@"); found {
		after = hostPart
	}
	host, _, _ := strings.Cut(after, "/")
	host, _, _ = strings.Cut(host, "?")
	if host == "" {
		return "", fmt.Errorf("NEON_DB_URL %q has no host", dbURL)
	}
	return host, nil
}

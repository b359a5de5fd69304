package lcu

import (
	"regexp"
	"strings"
)

var (
	quotedInstallDirPattern = regexp.MustCompile(`--install-directory=("[^"]+"|[^\s"]+)`)
	simpleInstallDirPattern = regexp.MustCompile(`--install-directory=([^ ]+)`)
)

// ResolveInstallPath extracts the --install-directory value from a process
// argument list. The value may be quoted (and contain spaces) or bare. The
// quote-aware pattern is tried first, then the bare one; quotes are stripped
// from the result.
func ResolveInstallPath(args []string) (string, error) {
	raw := strings.Join(args, " ")
	match := quotedInstallDirPattern.FindStringSubmatch(raw)
	if match == nil {
		match = simpleInstallDirPattern.FindStringSubmatch(raw)
	}
	if match == nil {
		return "", &DiscoveryError{Op: "resolve install path", Err: ErrInstallPathNotFound}
	}
	dir := strings.ReplaceAll(match[1], `"`, "")
	if dir == "" {
		return "", &DiscoveryError{Op: "resolve install path", Err: ErrInstallPathNotFound}
	}
	return dir, nil
}

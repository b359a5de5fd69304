package lcu

import "context"

// Discover runs the full discovery chain: scan the process table for the
// client UI, resolve its install directory, then read the lockfile there.
// It runs once per session establishment and never retries.
func Discover(ctx context.Context, src ProcessSource) (Credentials, error) {
	proc, err := FindUIProcess(ctx, src)
	if err != nil {
		return Credentials{}, err
	}
	dir, err := ResolveInstallPath(proc.Args)
	if err != nil {
		return Credentials{}, err
	}
	return ReadLockfile(dir)
}

// DiscoverFromInstallDir skips the process scan for users who configured the
// install directory explicitly.
func DiscoverFromInstallDir(installDir string) (Credentials, error) {
	if installDir == "" {
		return Credentials{}, &DiscoveryError{Op: "resolve install path", Err: ErrInstallPathNotFound}
	}
	return ReadLockfile(installDir)
}

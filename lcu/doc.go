// Package lcu discovers a running League of Legends client and talks to its
// local HTTPS API.
//
// Discovery is a fixed chain: FindUIProcess scans the process table for the
// client UI, ResolveInstallPath pulls --install-directory out of its
// arguments, and ReadLockfile parses the lockfile the client writes there.
// Discover runs all three. The resulting Credentials feed NewClient, whose
// session methods (CurrentSummoner, RunePages, ...) are typed wrappers over
// Get, Post, and Client.Delete.
//
// Failures are values: DiscoveryError and LockfileError mean the client is
// not running (see IsClientAbsent), BuildError means the credentials are
// unusable, and StatusError keeps the HTTP status of a rejected call.
package lcu

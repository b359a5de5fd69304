package lcu

import (
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// LockfileName is the token file the client writes into its install
	// directory on startup.
	LockfileName = "lockfile"
	// Username is the fixed Basic-Auth user of the local API.
	Username = "riot"
	// LoopbackAddress is where the local API listens.
	LoopbackAddress = "127.0.0.1"

	lockfileFields = 5
)

// Credentials are the connection parameters of one client launch. They are
// regenerated every time the client starts and are never written to disk.
type Credentials struct {
	Process  string
	PID      uint32
	Port     uint16
	Password string
	Protocol string
	Username string
	Address  string
}

// AuthToken returns base64("riot:"+password). It is derived on every call so
// it can never go stale relative to Username and Password.
func (c Credentials) AuthToken() string {
	return base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
}

// BaseURL returns protocol://address:port.
func (c Credentials) BaseURL() string {
	return fmt.Sprintf("%s://%s", c.Protocol, c.HostPort())
}

// HostPort returns address:port.
func (c Credentials) HostPort() string {
	return net.JoinHostPort(c.Address, strconv.FormatUint(uint64(c.Port), 10))
}

// String redacts the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s (pid %d) %s user=%s password=%s", c.Process, c.PID, c.BaseURL(), c.Username, redacted(c.Password))
}

// GoString redacts the password for %#v.
func (c Credentials) GoString() string {
	return fmt.Sprintf("lcu.Credentials{Process:%q, PID:%d, Port:%d, Password:%q, Protocol:%q, Username:%q, Address:%q}",
		c.Process, c.PID, c.Port, redacted(c.Password), c.Protocol, c.Username, c.Address)
}

func redacted(secret string) string {
	if secret == "" {
		return ""
	}
	return "<redacted>"
}

// LockfilePath returns <installDir>/lockfile.
func LockfilePath(installDir string) string {
	return filepath.Join(installDir, LockfileName)
}

// ReadLockfile reads and parses the lockfile under installDir.
func ReadLockfile(installDir string) (Credentials, error) {
	path := LockfilePath(installDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, &LockfileError{Kind: LockfileRead, Path: path, Err: err}
	}
	creds, err := ParseLockfile(string(data))
	if err != nil {
		if lockErr, ok := err.(*LockfileError); ok {
			lockErr.Path = path
		}
		return Credentials{}, err
	}
	return creds, nil
}

// ParseLockfile parses process:pid:port:password:protocol. Fields past the
// fifth are ignored. A single trailing line terminator is tolerated.
func ParseLockfile(contents string) (Credentials, error) {
	contents = strings.TrimSuffix(contents, "\n")
	contents = strings.TrimSuffix(contents, "\r")
	pieces := strings.Split(contents, ":")
	if len(pieces) < lockfileFields {
		return Credentials{}, &LockfileError{
			Kind: LockfileInvalidFormat,
			Err:  fmt.Errorf("expected at least %d fields, got %d", lockfileFields, len(pieces)),
		}
	}
	pid, err := strconv.ParseUint(pieces[1], 10, 32)
	if err != nil {
		return Credentials{}, &LockfileError{Kind: LockfileNumberFormat, Field: "pid", Err: err}
	}
	port, err := strconv.ParseUint(pieces[2], 10, 16)
	if err != nil {
		return Credentials{}, &LockfileError{Kind: LockfileNumberFormat, Field: "port", Err: err}
	}
	return Credentials{
		Process:  pieces[0],
		PID:      uint32(pid),
		Port:     uint16(port),
		Password: pieces[3],
		Protocol: pieces[4],
		Username: Username,
		Address:  LoopbackAddress,
	}, nil
}

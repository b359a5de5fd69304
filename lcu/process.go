package lcu

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// uiProcessNames lists the lowercase executable names of the client UI
// process. Windows reports the .exe suffix, macOS does not.
var uiProcessNames = []string{"leagueclientux.exe", "leagueclientux"}

// ProcessRecord describes one process from a single scan of the process
// table.
type ProcessRecord struct {
	Name string
	PID  int32
	Args []string
}

// ProcessSource exposes a read-only view of the host process table.
type ProcessSource interface {
	// Snapshot lists the running processes. Args may be left empty; they are
	// loaded on demand through CommandLine.
	Snapshot(ctx context.Context) ([]ProcessRecord, error)
	// CommandLine returns the full argument list of pid.
	CommandLine(ctx context.Context, pid int32) ([]string, error)
}

// SystemProcesses reads the host process table through gopsutil.
type SystemProcesses struct{}

// Snapshot implements ProcessSource. Processes whose name cannot be read
// (permissions, exited mid-scan) are skipped.
func (SystemProcesses) Snapshot(ctx context.Context) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		records = append(records, ProcessRecord{Name: name, PID: p.Pid})
	}
	return records, nil
}

// CommandLine implements ProcessSource.
func (SystemProcesses) CommandLine(ctx context.Context, pid int32) ([]string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	return p.CmdlineSliceWithContext(ctx)
}

// IsUIProcessName reports whether name is one of the client UI executables.
func IsUIProcessName(name string) bool {
	lower := strings.ToLower(name)
	for _, candidate := range uiProcessNames {
		if lower == candidate {
			return true
		}
	}
	return false
}

// FindUIProcess scans the process table once and returns the first client UI
// process with its arguments. Only one instance is expected; when several
// exist the choice among them is unspecified.
func FindUIProcess(ctx context.Context, src ProcessSource) (ProcessRecord, error) {
	if src == nil {
		src = SystemProcesses{}
	}
	records, err := src.Snapshot(ctx)
	if err != nil {
		return ProcessRecord{}, &DiscoveryError{Op: "scan processes", Err: err}
	}
	for _, rec := range records {
		if !IsUIProcessName(rec.Name) {
			continue
		}
		if len(rec.Args) == 0 {
			args, err := src.CommandLine(ctx, rec.PID)
			if err != nil {
				return ProcessRecord{}, &DiscoveryError{
					Op:  fmt.Sprintf("read arguments of pid %d", rec.PID),
					Err: err,
				}
			}
			rec.Args = args
		}
		return rec, nil
	}
	return ProcessRecord{}, &DiscoveryError{Op: "find client process", Err: ErrProcessNotFound}
}

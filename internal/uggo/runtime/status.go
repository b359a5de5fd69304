package runtime

import (
	"context"
	"time"

	"github.com/nguyenkhacvan/uggo-new/lcu"
)

// ClientReport surfaces the state of the League client session.
type ClientReport struct {
	Connected bool
	Process   string
	PID       uint32
	BaseURL   string
	Summoner  *lcu.Summoner
	PageCount int
	Current   *lcu.RunePage
	Error     string
}

// VersionReport surfaces the Data Dragon lookup.
type VersionReport struct {
	Endpoint string
	Version  string
	Error    string
}

// StatusSnapshot aggregates what the status command and the TUI header show.
type StatusSnapshot struct {
	Client    ClientReport
	Versions  VersionReport
	Backups   int
	Errors    []string
	Timestamp time.Time
}

// Status queries the live session and reports the cached patch version.
// Individual failures are recorded in the snapshot rather than returned.
func (r *Runtime) Status(ctx context.Context) StatusSnapshot {
	snap := StatusSnapshot{
		Client:    r.clientReport(ctx),
		Versions:  r.versionReport(),
		Backups:   -1,
		Timestamp: time.Now(),
	}
	if snap.Client.Error != "" {
		snap.Errors = append(snap.Errors, "client: "+snap.Client.Error)
	}
	if snap.Versions.Error != "" {
		snap.Errors = append(snap.Errors, "versions: "+snap.Versions.Error)
	}
	if r.Backups != nil {
		if backups, err := r.Backups.List(ctx); err == nil {
			snap.Backups = len(backups)
		} else {
			snap.Errors = append(snap.Errors, "backups: "+err.Error())
		}
	} else if r.BackupErr != nil {
		snap.Errors = append(snap.Errors, "backups: "+r.BackupErr.Error())
	}
	return snap
}

func (r *Runtime) clientReport(ctx context.Context) ClientReport {
	client, err := r.requireSession()
	if err != nil {
		return ClientReport{Error: err.Error()}
	}
	info, _ := r.SessionInfo()
	report := ClientReport{
		Connected: true,
		Process:   info.Process,
		PID:       info.PID,
		BaseURL:   info.BaseURL,
	}
	summoner, err := client.CurrentSummoner(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Summoner = &summoner
	pages, err := client.RunePages(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.PageCount = len(pages)
	for i := range pages {
		if pages[i].Current {
			report.Current = &pages[i]
			break
		}
	}
	return report
}

func (r *Runtime) versionReport() VersionReport {
	report := VersionReport{Endpoint: r.Versions.Endpoint, Version: r.Version()}
	if err := r.VersionErr(); err != nil {
		report.Error = err.Error()
	}
	return report
}

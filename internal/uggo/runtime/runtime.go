package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nguyenkhacvan/uggo-new/ddragon"
	"github.com/nguyenkhacvan/uggo-new/lcu"
	"github.com/nguyenkhacvan/uggo-new/persistence"
)

// ErrNoSession is returned by operations that need the League client while
// no session is established.
var ErrNoSession = errors.New("league client session unavailable")

// SessionInfo describes the current session without exposing its secrets.
type SessionInfo struct {
	Process     string
	PID         uint32
	BaseURL     string
	ConnectedAt time.Time
}

// Options tune runtime construction.
type Options struct {
	// Console receives log output in addition to the log file. Nil keeps logs
	// in the file only, which the TUI needs.
	Console io.Writer
	// Processes overrides the process table used for discovery.
	Processes lcu.ProcessSource
	// UserAgent is sent on every League client request. Empty keeps
	// lcu.DefaultUserAgent.
	UserAgent string
}

// Runtime wires the uggo CLI and Bubble Tea UI to the League client session,
// the version service, and the page backup store. It always returns a usable
// Runtime even when the client is not running so status views can surface
// the reason.
type Runtime struct {
	Config    Config
	Logger    *log.Logger
	Versions  *ddragon.Client
	Backups   persistence.PageBackupStore
	BackupErr error

	processes lcu.ProcessSource
	userAgent string
	logFile   io.Closer

	mu         sync.RWMutex
	session    *lcu.Client
	info       SessionInfo
	sessionErr error
	version    string
	versionErr error
}

// New builds a runtime, fetches the current patch version, and attempts one
// discovery of the League client. Discovery and version failures leave the
// runtime without a session or version; they are not returned as errors.
func New(ctx context.Context, cfg Config, opts Options) (*Runtime, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	var out io.Writer = logFile
	if opts.Console != nil {
		out = io.MultiWriter(opts.Console, logFile)
	}
	logger := log.New(out, "uggo ", log.LstdFlags|log.Lmicroseconds)

	fileCfg, err := LoadFileConfig(cfg.ConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Printf("config load failed: %v", err)
		}
		fileCfg = FileConfig{}
	}
	cfg.Apply(fileCfg)
	if err := cfg.Normalize(); err != nil {
		logFile.Close()
		return nil, err
	}

	versions := ddragon.NewClient(cfg.DDragonEndpoint)
	versions.Debug = cfg.Debug
	versions.Logger = logger

	processes := opts.Processes
	if processes == nil {
		processes = lcu.SystemProcesses{}
	}

	rt := &Runtime{
		Config:    cfg,
		Logger:    logger,
		Versions:  versions,
		processes: processes,
		userAgent: opts.UserAgent,
		logFile:   logFile,
	}

	backups, err := persistence.NewSQLitePageStore(cfg.BackupDBPath())
	if err != nil {
		rt.BackupErr = err
		logger.Printf("page backups unavailable: %v", err)
	} else {
		rt.Backups = backups
	}

	_, _ = rt.RefreshVersion(ctx)
	_ = rt.Connect(ctx)
	return rt, nil
}

// Close releases the session, the backup store, and the log file.
func (r *Runtime) Close() error {
	r.Disconnect()
	var errs []error
	if r.Backups != nil {
		errs = append(errs, r.Backups.Close())
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
	}
	return errors.Join(errs...)
}

// Connect runs the full discovery chain and replaces the current session.
// When the client is not running the previous session is dropped, the cause
// is recorded for SessionErr, and the error is returned.
func (r *Runtime) Connect(ctx context.Context) error {
	var (
		creds lcu.Credentials
		err   error
	)
	if r.Config.InstallDir != "" {
		creds, err = lcu.DiscoverFromInstallDir(r.Config.InstallDir)
	} else {
		creds, err = lcu.Discover(ctx, r.processes)
	}
	if err != nil {
		if lcu.IsClientAbsent(err) {
			r.Logger.Printf("league client not available: %v", err)
		} else {
			r.Logger.Printf("league client discovery failed: %v", err)
		}
		r.replaceSession(nil, SessionInfo{}, err)
		return err
	}
	opts := []lcu.Option{lcu.WithLogger(r.Logger)}
	if r.userAgent != "" {
		opts = append(opts, lcu.WithUserAgent(r.userAgent))
	}
	client, err := lcu.NewClient(creds, opts...)
	if err != nil {
		r.Logger.Printf("league client session: %v", err)
		r.replaceSession(nil, SessionInfo{}, err)
		return err
	}
	info := SessionInfo{
		Process:     creds.Process,
		PID:         creds.PID,
		BaseURL:     client.BaseURL(),
		ConnectedAt: time.Now(),
	}
	r.Logger.Printf("connected to %s (pid %d) at %s", info.Process, info.PID, info.BaseURL)
	r.replaceSession(client, info, nil)
	return nil
}

// Disconnect drops the current session, if any.
func (r *Runtime) Disconnect() {
	r.replaceSession(nil, SessionInfo{}, nil)
}

func (r *Runtime) replaceSession(client *lcu.Client, info SessionInfo, cause error) {
	r.mu.Lock()
	old := r.session
	r.session = client
	r.info = info
	r.sessionErr = cause
	r.mu.Unlock()
	if old != nil && old != client {
		old.Close()
	}
}

// Session returns the current League client session and whether one exists.
func (r *Runtime) Session() (*lcu.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session, r.session != nil
}

// SessionInfo describes the current session.
func (r *Runtime) SessionInfo() (SessionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info, r.session != nil
}

// SessionErr is the reason the last Connect failed.
func (r *Runtime) SessionErr() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionErr
}

func (r *Runtime) requireSession() (*lcu.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session != nil {
		return r.session, nil
	}
	if r.sessionErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, r.sessionErr)
	}
	return nil, ErrNoSession
}

// RefreshVersion fetches the latest patch version. Failures are logged and
// keep the previous value.
func (r *Runtime) RefreshVersion(ctx context.Context) (string, error) {
	version, err := r.Versions.LatestVersion(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versionErr = err
	if err != nil {
		r.Logger.Printf("version lookup failed: %v", err)
		return r.version, err
	}
	r.version = version
	return version, nil
}

// Version is the last patch version fetched by RefreshVersion.
func (r *Runtime) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// VersionErr is the error of the last RefreshVersion, if it failed.
func (r *Runtime) VersionErr() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versionErr
}

// Champions lists the champions of the cached patch version, fetching the
// version first when none is cached.
func (r *Runtime) Champions(ctx context.Context) (string, []ddragon.Champion, error) {
	version := r.Version()
	if version == "" {
		var err error
		if version, err = r.RefreshVersion(ctx); err != nil {
			return "", nil, err
		}
	}
	champions, err := r.Versions.Champions(ctx, version)
	if err != nil {
		return version, nil, err
	}
	return version, champions, nil
}

// CurrentSummoner returns the signed-in player.
func (r *Runtime) CurrentSummoner(ctx context.Context) (lcu.Summoner, error) {
	client, err := r.requireSession()
	if err != nil {
		return lcu.Summoner{}, err
	}
	return client.CurrentSummoner(ctx)
}

// RunePages lists the client's rune pages.
func (r *Runtime) RunePages(ctx context.Context) ([]lcu.RunePage, error) {
	client, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	return client.RunePages(ctx)
}

// CurrentRunePage returns the selected rune page.
func (r *Runtime) CurrentRunePage(ctx context.Context) (lcu.RunePage, error) {
	client, err := r.requireSession()
	if err != nil {
		return lcu.RunePage{}, err
	}
	return client.CurrentRunePage(ctx)
}

// CreateRunePage stores draft in the client.
func (r *Runtime) CreateRunePage(ctx context.Context, draft lcu.NewRunePage) (lcu.RunePage, error) {
	client, err := r.requireSession()
	if err != nil {
		return lcu.RunePage{}, err
	}
	page, err := client.CreateRunePage(ctx, draft)
	if err != nil {
		return lcu.RunePage{}, err
	}
	r.Logger.Printf("created rune page %d %q", page.ID, page.Name)
	return page, nil
}

// DeleteRunePage removes page id. With BackupOnDelete the page is
// snapshotted into the backup store first; a failed snapshot aborts the
// delete.
func (r *Runtime) DeleteRunePage(ctx context.Context, id int64) error {
	client, err := r.requireSession()
	if err != nil {
		return err
	}
	if r.Config.BackupOnDelete && r.Backups != nil {
		if _, err := r.snapshotPage(ctx, client, id, persistence.BackupReasonDelete); err != nil && !errors.Is(err, errPageNotListed) {
			return fmt.Errorf("backup rune page %d: %w", id, err)
		}
	}
	if err := client.DeleteRunePage(ctx, id); err != nil {
		return err
	}
	r.Logger.Printf("deleted rune page %d", id)
	return nil
}

// ExportRunePage snapshots page id into the backup store.
func (r *Runtime) ExportRunePage(ctx context.Context, id int64) (*persistence.PageBackup, error) {
	client, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	if r.Backups == nil {
		return nil, fmt.Errorf("page backups unavailable: %w", r.BackupErr)
	}
	return r.snapshotPage(ctx, client, id, persistence.BackupReasonExport)
}

// ListBackups lists stored page snapshots, newest first.
func (r *Runtime) ListBackups(ctx context.Context) ([]persistence.PageBackup, error) {
	if r.Backups == nil {
		return nil, fmt.Errorf("page backups unavailable: %w", r.BackupErr)
	}
	return r.Backups.List(ctx)
}

// RestoreBackup recreates a page from a stored snapshot.
func (r *Runtime) RestoreBackup(ctx context.Context, backupID string) (lcu.RunePage, error) {
	if r.Backups == nil {
		return lcu.RunePage{}, fmt.Errorf("page backups unavailable: %w", r.BackupErr)
	}
	backup, ok, err := r.Backups.Load(ctx, backupID)
	if err != nil {
		return lcu.RunePage{}, err
	}
	if !ok {
		return lcu.RunePage{}, fmt.Errorf("backup %s not found", backupID)
	}
	draft := backup.Page.Draft()
	draft.Current = false
	return r.CreateRunePage(ctx, draft)
}

// DeleteBackup removes a stored snapshot.
func (r *Runtime) DeleteBackup(ctx context.Context, backupID string) error {
	if r.Backups == nil {
		return fmt.Errorf("page backups unavailable: %w", r.BackupErr)
	}
	if _, ok, err := r.Backups.Load(ctx, backupID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("backup %s not found", backupID)
	}
	if err := r.Backups.Delete(ctx, backupID); err != nil {
		return err
	}
	r.Logger.Printf("deleted backup %s", backupID)
	return nil
}

var errPageNotListed = errors.New("rune page not listed")

func (r *Runtime) snapshotPage(ctx context.Context, client *lcu.Client, id int64, reason persistence.BackupReason) (*persistence.PageBackup, error) {
	pages, err := client.RunePages(ctx)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.ID != id {
			continue
		}
		backup := &persistence.PageBackup{Reason: reason, Page: page}
		if summoner, err := client.CurrentSummoner(ctx); err == nil {
			backup.Summoner = summoner.RiotID()
		}
		if err := r.Backups.Save(ctx, backup); err != nil {
			return nil, err
		}
		r.Logger.Printf("backed up rune page %d %q as %s", page.ID, page.Name, backup.ID)
		return backup, nil
	}
	return nil, fmt.Errorf("%w: %d", errPageNotListed, id)
}

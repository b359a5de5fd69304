package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nguyenkhacvan/uggo-new/lcu"
	"github.com/nguyenkhacvan/uggo-new/persistence"
)

type noProcesses struct{}

func (noProcesses) Snapshot(context.Context) ([]lcu.ProcessRecord, error) { return nil, nil }

func (noProcesses) CommandLine(context.Context, int32) ([]string, error) { return nil, nil }

type pageServer struct {
	mu        sync.Mutex
	pages     []lcu.RunePage
	next      int64
	userAgent string
}

func (p *pageServer) handler(t *testing.T, password string) http.Handler {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+password))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lol-summoner/v1/current-summoner", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(lcu.Summoner{GameName: "Faker", TagLine: "KR1"})
	})
	mux.HandleFunc("GET /lol-perks/v1/pages", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		_ = json.NewEncoder(w).Encode(p.pages)
	})
	mux.HandleFunc("POST /lol-perks/v1/pages", func(w http.ResponseWriter, r *http.Request) {
		var draft lcu.NewRunePage
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		page := lcu.RunePage{
			ID:              p.next,
			Name:            draft.Name,
			PrimaryStyleID:  draft.PrimaryStyleID,
			SubStyleID:      draft.SubStyleID,
			SelectedPerkIDs: draft.SelectedPerkIDs,
		}
		p.next++
		p.pages = append(p.pages, page)
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("DELETE /lol-perks/v1/pages/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, page := range p.pages {
			if fmt.Sprint(page.ID) == r.PathValue("id") {
				p.pages = append(p.pages[:i], p.pages[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.userAgent = r.UserAgent()
		p.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// installWithClient writes a lockfile for a fake client into a fresh install
// directory.
func installWithClient(t *testing.T, pages *pageServer) string {
	t.Helper()
	const password = "hunter2"
	srv := httptest.NewTLSServer(pages.handler(t, password))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	dir := t.TempDir()
	contents := fmt.Sprintf("LeagueClient:4242:%s:%s:https", u.Port(), password)
	require.NoError(t, os.WriteFile(filepath.Join(dir, lcu.LockfileName), []byte(contents), 0o644))
	return dir
}

// dataDragon serves a two-patch version list and a tiny roster for 15.2.1,
// counting version lookups.
type dataDragon struct {
	mu      sync.Mutex
	lookups int
}

func (d *dataDragon) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

func (d *dataDragon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.lookups++
		d.mu.Unlock()
		_, _ = io.WriteString(w, `["15.2.1","15.1.1"]`)
	})
	mux.HandleFunc("GET /cdn/15.2.1/data/en_US/champion.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"Zed":{"id":"Zed","key":"238","name":"Zed"},"Ahri":{"id":"Ahri","key":"103","name":"Ahri"}}}`)
	})
	return mux
}

func testConfig(t *testing.T, installDir string) Config {
	t.Helper()
	cfg, _ := testConfigWithDataDragon(t, installDir)
	return cfg
}

func testConfigWithDataDragon(t *testing.T, installDir string) (Config, *dataDragon) {
	t.Helper()
	dd := &dataDragon{}
	versions := httptest.NewServer(dd.handler())
	t.Cleanup(versions.Close)
	return Config{
		DataDir:         t.TempDir(),
		InstallDir:      installDir,
		DDragonEndpoint: versions.URL,
		BackupOnDelete:  true,
	}, dd
}

func newTestRuntime(t *testing.T, cfg Config, console io.Writer) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), cfg, Options{Console: console, Processes: noProcesses{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestNewWithoutClientKeepsRuntimeUsable(t *testing.T) {
	var console bytes.Buffer
	rt := newTestRuntime(t, testConfig(t, ""), &console)

	_, ok := rt.Session()
	require.False(t, ok)
	require.True(t, lcu.IsClientAbsent(rt.SessionErr()))
	require.ErrorIs(t, rt.SessionErr(), lcu.ErrProcessNotFound)
	require.Contains(t, console.String(), "league client not available")

	_, err := rt.RunePages(context.Background())
	require.ErrorIs(t, err, ErrNoSession)

	_, err = os.Stat(rt.Config.LogPath)
	require.NoError(t, err)
}

func TestNewConnectsFromInstallDir(t *testing.T) {
	pages := &pageServer{pages: []lcu.RunePage{{ID: 1, Name: "Conqueror", Current: true}}, next: 2}
	rt := newTestRuntime(t, testConfig(t, installWithClient(t, pages)), nil)

	client, ok := rt.Session()
	require.True(t, ok)
	require.NotNil(t, client)
	info, ok := rt.SessionInfo()
	require.True(t, ok)
	require.Equal(t, uint32(4242), info.PID)
	require.True(t, strings.HasPrefix(info.BaseURL, "https://127.0.0.1:"))

	summoner, err := rt.CurrentSummoner(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Faker#KR1", summoner.RiotID())
}

func TestDeleteBacksUpAndRestore(t *testing.T) {
	pages := &pageServer{
		pages: []lcu.RunePage{{ID: 1, Name: "Conqueror", PrimaryStyleID: 8000, SubStyleID: 8400, SelectedPerkIDs: []int64{8010}}},
		next:  2,
	}
	rt := newTestRuntime(t, testConfig(t, installWithClient(t, pages)), nil)
	ctx := context.Background()

	require.NoError(t, rt.DeleteRunePage(ctx, 1))
	remaining, err := rt.RunePages(ctx)
	require.NoError(t, err)
	require.Empty(t, remaining)

	backups, err := rt.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, persistence.BackupReasonDelete, backups[0].Reason)
	require.Equal(t, "Faker#KR1", backups[0].Summoner)

	restored, err := rt.RestoreBackup(ctx, backups[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Conqueror", restored.Name)
	require.Equal(t, []int64{8010}, restored.SelectedPerkIDs)
	require.Equal(t, int64(2), restored.ID)
}

func TestDeleteMissingPageSurfacesStatus(t *testing.T) {
	pages := &pageServer{next: 1}
	rt := newTestRuntime(t, testConfig(t, installWithClient(t, pages)), nil)

	err := rt.DeleteRunePage(context.Background(), 99)
	code, ok := lcu.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, code)

	backups, err := rt.ListBackups(context.Background())
	require.NoError(t, err)
	require.Empty(t, backups)
}

func TestReconnectDropsSessionWhenLockfileGone(t *testing.T) {
	pages := &pageServer{next: 1}
	dir := installWithClient(t, pages)
	rt := newTestRuntime(t, testConfig(t, dir), nil)
	_, ok := rt.Session()
	require.True(t, ok)

	require.NoError(t, os.Remove(filepath.Join(dir, lcu.LockfileName)))
	err := rt.Connect(context.Background())
	require.Error(t, err)
	require.True(t, lcu.IsClientAbsent(err))
	_, ok = rt.Session()
	require.False(t, ok)
}

func TestFileConfigAppliesInstallDir(t *testing.T) {
	pages := &pageServer{next: 1}
	dir := installWithClient(t, pages)
	cfg := testConfig(t, "")
	cfg.ConfigPath = filepath.Join(cfg.DataDir, "config.yaml")
	off := false
	require.NoError(t, SaveFileConfig(cfg.ConfigPath, FileConfig{InstallDir: dir, BackupOnDelete: &off}))

	rt := newTestRuntime(t, cfg, nil)
	require.Equal(t, dir, rt.Config.InstallDir)
	require.False(t, rt.Config.BackupOnDelete)
	_, ok := rt.Session()
	require.True(t, ok)
}

func TestStatusSnapshot(t *testing.T) {
	pages := &pageServer{pages: []lcu.RunePage{{ID: 5, Name: "Aery", Current: true}}, next: 6}
	rt := newTestRuntime(t, testConfig(t, installWithClient(t, pages)), nil)

	snap := rt.Status(context.Background())
	require.Empty(t, snap.Errors)
	require.True(t, snap.Client.Connected)
	require.Equal(t, 1, snap.Client.PageCount)
	require.NotNil(t, snap.Client.Current)
	require.Equal(t, "Aery", snap.Client.Current.Name)
	require.Equal(t, "15.2.1", snap.Versions.Version)
	require.Equal(t, "15.2.1", rt.Version())
	require.Equal(t, 0, snap.Backups)
}

func TestStatusWithoutClient(t *testing.T) {
	rt := newTestRuntime(t, testConfig(t, ""), nil)
	snap := rt.Status(context.Background())
	require.False(t, snap.Client.Connected)
	require.NotEmpty(t, snap.Client.Error)
	require.Contains(t, strings.Join(snap.Errors, " "), "client:")
}

func TestNormalizeFillsPaths(t *testing.T) {
	cfg := Config{DataDir: t.TempDir(), LogPath: "custom.log"}
	require.NoError(t, cfg.Normalize())
	require.Equal(t, filepath.Join(cfg.DataDir, "config.yaml"), cfg.ConfigPath)
	require.Equal(t, filepath.Join(cfg.DataDir, "custom.log"), cfg.LogPath)
	require.Equal(t, filepath.Join(cfg.DataDir, "pages.db"), cfg.BackupDBPath())
	require.NotEmpty(t, cfg.DDragonEndpoint)
}

func TestStatusReportsCachedVersion(t *testing.T) {
	cfg, dd := testConfigWithDataDragon(t, "")
	rt := newTestRuntime(t, cfg, nil)
	require.Equal(t, 1, dd.count())

	for i := 0; i < 3; i++ {
		snap := rt.Status(context.Background())
		require.Equal(t, "15.2.1", snap.Versions.Version)
		require.Empty(t, snap.Versions.Error)
	}
	require.Equal(t, 1, dd.count())

	_, err := rt.RefreshVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, dd.count())
}

func TestStatusReportsVersionFailure(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.DDragonEndpoint = "http://127.0.0.1:1"
	rt := newTestRuntime(t, cfg, nil)

	snap := rt.Status(context.Background())
	require.Empty(t, snap.Versions.Version)
	require.NotEmpty(t, snap.Versions.Error)
	require.Contains(t, strings.Join(snap.Errors, " "), "versions:")
}

func TestDebugRoutesDataDragonLogsToRuntimeLogger(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Debug = true
	rt := newTestRuntime(t, cfg, nil)
	require.Same(t, rt.Logger, rt.Versions.Logger)

	_, err := rt.RefreshVersion(context.Background())
	require.NoError(t, err)
	logged, err := os.ReadFile(rt.Config.LogPath)
	require.NoError(t, err)
	require.Contains(t, string(logged), "[ddragon] GET /api/versions.json")
}

func TestChampionsUsesCachedVersion(t *testing.T) {
	cfg, dd := testConfigWithDataDragon(t, "")
	rt := newTestRuntime(t, cfg, nil)

	version, champs, err := rt.Champions(context.Background())
	require.NoError(t, err)
	require.Equal(t, "15.2.1", version)
	require.Len(t, champs, 2)
	require.Equal(t, "Ahri", champs[0].Name)
	require.Equal(t, "Zed", champs[1].Name)
	require.Equal(t, 1, dd.count())
}

func TestDeleteBackup(t *testing.T) {
	pages := &pageServer{pages: []lcu.RunePage{{ID: 1, Name: "Conqueror"}}, next: 2}
	rt := newTestRuntime(t, testConfig(t, installWithClient(t, pages)), nil)
	ctx := context.Background()

	backup, err := rt.ExportRunePage(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, rt.DeleteBackup(ctx, backup.ID))

	backups, err := rt.ListBackups(ctx)
	require.NoError(t, err)
	require.Empty(t, backups)

	err = rt.DeleteBackup(ctx, backup.ID)
	require.ErrorContains(t, err, "not found")
}

func TestConnectSendsConfiguredUserAgent(t *testing.T) {
	pages := &pageServer{next: 1}
	cfg := testConfig(t, installWithClient(t, pages))
	rt, err := New(context.Background(), cfg, Options{Processes: noProcesses{}, UserAgent: "uggo-lol-client/9.9.9"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	_, err = rt.RunePages(context.Background())
	require.NoError(t, err)
	pages.mu.Lock()
	defer pages.mu.Unlock()
	require.Equal(t, "uggo-lol-client/9.9.9", pages.userAgent)
}

func TestExplicitFlagBeatsFileConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.ConfigPath = filepath.Join(cfg.DataDir, "config.yaml")
	on := true
	require.NoError(t, SaveFileConfig(cfg.ConfigPath, FileConfig{DDragonEndpoint: "https://cdn.example.test", BackupOnDelete: &on}))

	cfg.DDragonEndpoint = "https://ddragon.leagueoflegends.com"
	cfg.BackupOnDelete = false
	cfg.MarkExplicit(KeyDDragonEndpoint)
	cfg.MarkExplicit(KeyBackupOnDelete)

	file, err := LoadFileConfig(cfg.ConfigPath)
	require.NoError(t, err)
	cfg.Apply(file)
	require.Equal(t, "https://ddragon.leagueoflegends.com", cfg.DDragonEndpoint)
	require.False(t, cfg.BackupOnDelete)

	implicit := Config{DDragonEndpoint: "https://ddragon.leagueoflegends.com", BackupOnDelete: false}
	implicit.Apply(file)
	require.Equal(t, "https://cdn.example.test", implicit.DDragonEndpoint)
	require.True(t, implicit.BackupOnDelete)
}

func TestFileConfigTypedKeys(t *testing.T) {
	var file FileConfig
	require.NoError(t, file.Set(KeyInstallDir, "C:/Riot Games/League of Legends"))
	require.NoError(t, file.Set(KeyDDragonEndpoint, "https://cdn.example.test/"))
	require.NoError(t, file.Set(KeyBackupOnDelete, "false"))
	require.NoError(t, file.Set(KeyDebug, "true"))

	require.Equal(t, "https://cdn.example.test", file.DDragonEndpoint)
	require.NotNil(t, file.BackupOnDelete)
	require.False(t, *file.BackupOnDelete)
	require.True(t, file.Debug)

	value, ok, err := file.Get(KeyBackupOnDelete)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "false", value)

	require.Error(t, file.Set(KeyDDragonEndpoint, "not a url"))
	require.Error(t, file.Set(KeyDDragonEndpoint, "ftp://cdn.example.test"))
	require.Error(t, file.Set(KeyBackupOnDelete, "sometimes"))
	require.Error(t, file.Set(KeyDebug, "10"))

	var unknown *UnknownKeyError
	require.ErrorAs(t, file.Set("versions_url", "x"), &unknown)
	_, _, err = file.Get("ui.refresh_seconds")
	require.ErrorAs(t, err, &unknown)
	require.Contains(t, err.Error(), KeyDDragonEndpoint)

	var empty FileConfig
	_, ok, err = empty.Get(KeyBackupOnDelete)
	require.NoError(t, err)
	require.False(t, ok)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveFileConfig(path, file))
	loaded, err := LoadFileConfig(path)
	require.NoError(t, err)
	require.Equal(t, file.InstallDir, loaded.InstallDir)
	require.False(t, *loaded.BackupOnDelete)
}

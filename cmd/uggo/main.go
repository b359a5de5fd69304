package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	runtimesvc "github.com/nguyenkhacvan/uggo-new/internal/uggo/runtime"
	"github.com/nguyenkhacvan/uggo-new/internal/uggo/tui"
	"github.com/nguyenkhacvan/uggo-new/lcu"
)

// version is overridden at build time with -ldflags.
var version = "0.5.1"

var (
	cfg        = runtimesvc.DefaultConfig()
	jsonOutput bool
)

// fileBackedFlags maps flags to the config.yaml keys they override.
var fileBackedFlags = map[string]string{
	"install-dir":      runtimesvc.KeyInstallDir,
	"ddragon-endpoint": runtimesvc.KeyDDragonEndpoint,
	"debug":            runtimesvc.KeyDebug,
}

func userAgent() string {
	return "uggo-lol-client/" + version
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uggo",
		Short:         "Rune page manager for the running League of Legends client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for flag, key := range fileBackedFlags {
				if cmd.Flags().Changed(flag) {
					cfg.MarkExplicit(key)
				}
			}
			return cfg.Normalize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, false, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				return tui.Run(ctx, rt, tui.Options{InitialMode: tui.ModeStatus})
			})
		},
	}
	root.PersistentFlags().StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Config file path")
	root.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for backups and logs")
	root.PersistentFlags().StringVar(&cfg.LogPath, "log", cfg.LogPath, "Log file path")
	root.PersistentFlags().StringVar(&cfg.InstallDir, "install-dir", cfg.InstallDir, "League client install directory (skips the process scan)")
	root.PersistentFlags().StringVar(&cfg.DDragonEndpoint, "ddragon-endpoint", cfg.DDragonEndpoint, "Data Dragon base URL")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Log version service requests")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newStatusCmd(),
		newSummonerCmd(),
		newLockfileCmd(),
		newPagesCmd(),
		newChampionsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show League client and Data Dragon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				snap := rt.Status(ctx)
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), snap)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				if snap.Client.Connected {
					fmt.Fprintf(w, "client\tconnected\t%s (pid %d) %s\n", snap.Client.Process, snap.Client.PID, snap.Client.BaseURL)
				} else {
					fmt.Fprintf(w, "client\tdisconnected\t\n")
				}
				if s := snap.Client.Summoner; s != nil {
					fmt.Fprintf(w, "summoner\t%s\tlevel %d\n", s.RiotID(), s.SummonerLevel)
				}
				if snap.Client.Connected {
					current := "-"
					if snap.Client.Current != nil {
						current = snap.Client.Current.Name
					}
					fmt.Fprintf(w, "rune pages\t%d\tcurrent: %s\n", snap.Client.PageCount, current)
				}
				fmt.Fprintf(w, "patch\t%s\t%s\n", valueOr(snap.Versions.Version, "unknown"), snap.Versions.Endpoint)
				if snap.Backups >= 0 {
					fmt.Fprintf(w, "backups\t%d\t%s\n", snap.Backups, rt.Config.BackupDBPath())
				}
				for _, msg := range snap.Errors {
					fmt.Fprintf(w, "error\t%s\t\n", msg)
				}
				return w.Flush()
			})
		},
	}
}

func newSummonerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summoner",
		Short: "Show the signed-in summoner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				summoner, err := rt.CurrentSummoner(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), summoner)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "name\t%s\n", summoner.RiotID())
				fmt.Fprintf(w, "level\t%d (%d%%)\n", summoner.SummonerLevel, summoner.PercentCompleteForNextLevel)
				fmt.Fprintf(w, "summoner id\t%d\n", summoner.SummonerID)
				fmt.Fprintf(w, "puuid\t%s\n", summoner.PUUID)
				return w.Flush()
			})
		},
	}
}

// newLockfileCmd prints the discovered connection details. The password is
// always redacted.
func newLockfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lockfile",
		Short: "Locate the running client and print its lockfile credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyFileConfig(); err != nil {
				return err
			}
			var (
				creds lcu.Credentials
				err   error
			)
			if cfg.InstallDir != "" {
				creds, err = lcu.DiscoverFromInstallDir(cfg.InstallDir)
			} else {
				creds, err = lcu.Discover(cmd.Context(), lcu.SystemProcesses{})
			}
			if err != nil {
				if lcu.IsClientAbsent(err) {
					return fmt.Errorf("league client not found: %w", err)
				}
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), redactedCredentials(creds))
			}
			fmt.Fprintln(cmd.OutOrStdout(), creds.String())
			return nil
		},
	}
}

func newChampionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "champions",
		Short: "List the champions of the latest patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				patch, champions, err := rt.Champions(ctx)
				if err != nil {
					return fmt.Errorf("champions: %w", err)
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), champions)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "KEY\tID\tNAME\t(patch %s)\n", patch)
				for _, c := range champions {
					fmt.Fprintf(w, "%s\t%s\t%s\t\n", c.Key, c.ID, c.Name)
				}
				return w.Flush()
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the uggo version and the latest game patch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				patch, err := rt.Version(), rt.VersionErr()
				if jsonOutput {
					out := map[string]string{"uggo": version, "patch": patch}
					if err != nil {
						out["error"] = err.Error()
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uggo %s\n", version)
				if err != nil {
					return fmt.Errorf("latest patch: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "patch %s\n", patch)
				return nil
			})
		},
	}
}

// runWithRuntime builds the shared runtime. With --debug, CLI commands echo
// the log to stderr; the TUI always keeps logs in the file.
func runWithRuntime(cmd *cobra.Command, console bool, fn func(context.Context, *runtimesvc.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := runtimesvc.Options{UserAgent: userAgent()}
	if console && cfg.Debug {
		opts.Console = cmd.ErrOrStderr()
	}
	rt, err := runtimesvc.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	err = fn(ctx, rt)
	if errors.Is(err, runtimesvc.ErrNoSession) {
		return fmt.Errorf("%w (is the League client running?)", err)
	}
	return err
}

func applyFileConfig() error {
	file, err := runtimesvc.LoadFileConfig(cfg.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	cfg.Apply(file)
	return cfg.Normalize()
}

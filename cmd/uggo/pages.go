package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	runtimesvc "github.com/nguyenkhacvan/uggo-new/internal/uggo/runtime"
	"github.com/nguyenkhacvan/uggo-new/lcu"
)

// newPagesCmd groups the rune page subcommands.
func newPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List, create, and delete rune pages",
	}
	cmd.AddCommand(
		newPagesListCmd(),
		newPagesCurrentCmd(),
		newPagesDeleteCmd(),
		newPagesExportCmd(),
		newPagesCreateCmd(),
		newPagesBackupsCmd(),
		newPagesRestoreCmd(),
	)
	return cmd
}

func newPagesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rune pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				pages, err := rt.RunePages(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), pages)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTYLES\tPERKS\tFLAGS")
				for _, page := range pages {
					fmt.Fprintf(w, "%d\t%s\t%d/%d\t%d\t%s\n", page.ID, page.Name, page.PrimaryStyleID, page.SubStyleID, len(page.SelectedPerkIDs), pageFlags(page))
				}
				return w.Flush()
			})
		},
	}
}

func newPagesCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the selected rune page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				page, err := rt.CurrentRunePage(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), page)
				}
				printPage(cmd, page)
				return nil
			})
		},
	}
}

func newPagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [page-id]",
		Short: "Delete a rune page (backed up first unless backup_on_delete is false)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePageID(args[0])
			if err != nil {
				return err
			}
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				if err := rt.DeleteRunePage(ctx, id); err != nil {
					if code, ok := lcu.StatusCode(err); ok && code == 404 {
						return fmt.Errorf("rune page %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted rune page %d\n", id)
				return nil
			})
		},
	}
}

func newPagesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [page-id]",
		Short: "Save a rune page to the backup store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePageID(args[0])
			if err != nil {
				return err
			}
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				backup, err := rt.ExportRunePage(ctx, id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), backup)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved rune page %d as %s\n", id, backup.ID)
				return nil
			})
		},
	}
}

func newPagesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [page.json]",
		Short: "Create a rune page from a JSON draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(args[0])
			if err != nil {
				return err
			}
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				page, err := rt.CreateRunePage(ctx, draft)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), page)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created rune page %d %q\n", page.ID, page.Name)
				return nil
			})
		},
	}
}

func newPagesBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List stored rune page backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				backups, err := rt.ListBackups(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), backups)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "BACKUP\tPAGE\tREASON\tSUMMONER\tSAVED")
				for _, b := range backups {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Page.Name, b.Reason, valueOr(b.Summoner, "-"), b.CreatedAt.Local().Format(time.DateTime))
				}
				return w.Flush()
			})
		},
	}
	cmd.AddCommand(newPagesBackupsDeleteCmd())
	return cmd
}

func newPagesBackupsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [backup-id]",
		Short: "Remove a stored rune page backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				if err := rt.DeleteBackup(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted backup %s\n", args[0])
				return nil
			})
		},
	}
}

func newPagesRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [backup-id]",
		Short: "Recreate a rune page from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, true, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				page, err := rt.RestoreBackup(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), page)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %q as rune page %d\n", page.Name, page.ID)
				return nil
			})
		},
	}
}

func printPage(cmd *cobra.Command, page lcu.RunePage) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%d\n", page.ID)
	fmt.Fprintf(w, "name\t%s\n", page.Name)
	fmt.Fprintf(w, "styles\t%d / %d\n", page.PrimaryStyleID, page.SubStyleID)
	fmt.Fprintf(w, "perks\t%s\n", formatPerks(page.SelectedPerkIDs))
	fmt.Fprintf(w, "flags\t%s\n", pageFlags(page))
	_ = w.Flush()
}

func formatPerks(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}

func parsePageID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rune page id %q", raw)
	}
	return id, nil
}

// readDraft loads a rune page draft. A full page as printed by
// `pages current --json` is accepted too.
func readDraft(path string) (lcu.NewRunePage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lcu.NewRunePage{}, err
	}
	var draft lcu.NewRunePage
	if err := json.Unmarshal(data, &draft); err != nil {
		return lcu.NewRunePage{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if draft.Name == "" {
		return lcu.NewRunePage{}, fmt.Errorf("%s: rune page name required", path)
	}
	if draft.PrimaryStyleID == 0 || draft.SubStyleID == 0 {
		return lcu.NewRunePage{}, fmt.Errorf("%s: primaryStyleId and subStyleId required", path)
	}
	return draft, nil
}

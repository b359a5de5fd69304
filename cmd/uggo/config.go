package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	runtimesvc "github.com/nguyenkhacvan/uggo-new/internal/uggo/runtime"
)

// newConfigCmd registers subcommands that inspect or mutate config.yaml.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or modify config.yaml",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd(), newConfigPathCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadFileConfig(cfg.ConfigPath)
			if err != nil {
				return err
			}
			value, ok, err := file.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %s not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Update a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setFileConfigValue(cfg.ConfigPath, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.ConfigPath)
			return nil
		},
	}
}

// loadFileConfig treats a missing file as empty.
func loadFileConfig(path string) (runtimesvc.FileConfig, error) {
	file, err := runtimesvc.LoadFileConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return runtimesvc.FileConfig{}, nil
	}
	return file, err
}

func setFileConfigValue(path, key, raw string) error {
	file, err := loadFileConfig(path)
	if err != nil {
		return err
	}
	if err := file.Set(key, raw); err != nil {
		return err
	}
	return runtimesvc.SaveFileConfig(path, file)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/tusks/internal/config"
)

// newConfigCommand creates the `tusks config` command tree.
// Subcommands that read configuration use the App's config provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tusks configuration",
		Long: `Manage tusks configuration.

Configuration is stored in:
  - Linux: ~/.config/tusks/config.cue
  - macOS: ~/Library/Application Support/tusks/config.cue
  - Windows: %APPDATA%\tusks\config.cue

A config.cue in the current directory takes precedence, and variables
prefixed with TUSKS_ override single keys (TUSKS_UI_VERBOSE=true).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the CUE schema of the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(app.stdout, config.Schema())
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return app.reportError(fmt.Errorf("failed to create config: %w", err))
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.reportError(err)
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.reportError(err)
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.reportError(err)
	}

	muted := SubtitleStyle.Render
	value := SuccessStyle.Render
	source := muted("(using defaults)")
	if src := app.Config.Source(); src != "" {
		source = src
	}
	links := []string{muted("(none configured)")}
	if len(cfg.LinkPaths) > 0 {
		links = links[:0]
		for _, p := range cfg.LinkPaths {
			links = append(links, "- "+value(p.String()))
		}
	}
	textfile := muted("(disabled)")
	if cfg.Metrics.Textfile != "" {
		textfile = value(cfg.Metrics.Textfile)
	}

	sections := []struct {
		key    string
		inline string
		nested []string
	}{
		{key: "Config file", inline: source},
		{key: "file", inline: value(cfg.DeclarationFile())},
		{key: "link_paths", nested: links},
		{key: "listing", nested: []string{
			"separator: " + value(fmt.Sprintf("%q", cfg.Listing.Separator)),
			"max_group_size: " + value(fmt.Sprint(cfg.Listing.MaxGroupSize)),
			"max_depth: " + value(fmt.Sprint(cfg.Listing.MaxDepth)),
		}},
		{key: "ui", nested: []string{
			"use_colors: " + value(fmt.Sprint(cfg.UI.UseColors)),
			"verbose: " + value(fmt.Sprint(cfg.UI.Verbose)),
		}},
		{key: "cache.size", inline: value(fmt.Sprint(cfg.Cache.Size))},
		{key: "metrics.textfile", inline: textfile},
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	for _, sec := range sections {
		fmt.Fprintln(w)
		if sec.nested == nil {
			fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(sec.key), sec.inline)
			continue
		}
		fmt.Fprintf(w, "%s:\n", CmdStyle.Render(sec.key))
		for _, line := range sec.nested {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

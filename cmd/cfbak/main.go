package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cfbak/internal/app"
	"cfbak/internal/cfbak"
	"cfbak/internal/config"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config, applies environment credentials, validates, and
// creates an App. The caller must defer a.Close().
func newApp(ctx context.Context) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "cfbak",
	Short: "Back up Cloudflare zone configuration into a Git repository",
	Long: `cfbak mirrors Cloudflare zone configuration (DNS records, page rules,
worker scripts, firewall/access/rate-limit rules, SSL/TLS settings) into
timestamped snapshots in a GitHub repository, and can list or restore them.`,
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Println("Set cloudflare api_token and store owner/repo/token before the first backup.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Store:    %s", cfg.Store.Type)
		if cfg.Store.Type == "github" {
			fmt.Printf(" (%s/%s)", cfg.Store.Owner, cfg.Store.Repo)
		}
		fmt.Println()
		fmt.Printf("Database: %s\n", cfg.Database.Type)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		return nil
	},
}

// backup command

var backupCmd = &cobra.Command{
	Use:   "backup [zoneID...]",
	Short: "Back up zone configuration (all zones unless IDs are given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Backup(ctx, args)
		if err != nil {
			return err
		}

		for _, z := range result.Zones {
			fmt.Printf("Backed up %s (%s) -> %s (%d files)\n", z.ZoneName, z.ZoneID, z.Timestamp, z.Files)
		}
		if len(result.Missing) > 0 {
			fmt.Printf("Warning: no zones matched: %v\n", result.Missing)
		}
		return nil
	},
}

// list command

var listCmd = &cobra.Command{
	Use:   "list <zoneID>",
	Short: "List backup snapshots for a zone, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		snapshots, err := a.ListBackups(ctx, args[0])
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Println("No backups found.")
			return nil
		}
		for _, s := range snapshots {
			fmt.Printf("%s\t%s\n", s.Timestamp, s.URL)
		}
		return nil
	},
}

// restore command

var restoreTimestamp string

var restoreCmd = &cobra.Command{
	Use:   "restore <zoneID>",
	Short: "Restore a zone from a snapshot (newest unless --timestamp)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Restore(ctx, args[0], restoreTimestamp)
		if err != nil {
			return err
		}

		fmt.Printf("Restore of %s from %s:\n", result.ZoneName, result.Timestamp)
		for _, e := range result.Entries {
			fmt.Printf("  %-24s %s\n", e.Name, e.Status)
		}
		return nil
	},
}

// history command

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent backup/list/restore runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(historyLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s\t%-8s\t%-8s", r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Operation, r.Status)
			if r.ZoneID != "" {
				line += "\tzone=" + r.ZoneID
			}
			if r.Snapshot != "" {
				line += "\tsnapshot=" + r.Snapshot
			}
			if r.Error != "" {
				line += "\terror=" + r.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

// serve command

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backup/list/restore tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "cfbak",
			Version: "1.0.0",
		}, nil)
		cfbak.RegisterMCP(srv, a)

		return srv.Run(ctx, &mcp.StdioTransport{})
	},
}

func init() {
	restoreCmd.Flags().StringVarP(&restoreTimestamp, "timestamp", "t", "", "snapshot timestamp to restore (default: newest)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

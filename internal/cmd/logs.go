package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halverson/dispatch/internal/config"
	"github.com/halverson/dispatch/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect and export coordinator logs",
	Long: `Read the JSON log records from the configured log directory,
filter them, and print them as text or export them to a file.`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().String("dir", "", "log directory (overrides logging.dir)")
	logsCmd.Flags().String("level", "", "minimum level to include (debug, info, warn, error)")
	logsCmd.Flags().String("run", "", "only records from this coordinator run ID")
	logsCmd.Flags().String("key", "", "only records whose attempt key contains this substring")
	logsCmd.Flags().String("contains", "", "only records whose message contains this substring")
	logsCmd.Flags().String("since", "", "only records at or after this time (RFC 3339)")
	logsCmd.Flags().StringP("output", "o", "", "export to this file instead of printing")
	logsCmd.Flags().String("format", "text", "export format: json, text, csv")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.Logging.Dir
	}
	if dir == "" {
		return fmt.Errorf("no log directory configured; set logging.dir or pass --dir")
	}

	filter := logging.LogFilter{}
	filter.Level, _ = cmd.Flags().GetString("level")
	filter.RunID, _ = cmd.Flags().GetString("run")
	filter.KeyContains, _ = cmd.Flags().GetString("key")
	filter.MessageContains, _ = cmd.Flags().GetString("contains")

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		filter.StartTime = t
	}

	entries, err := logging.AggregateLogs(dir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		format, _ := cmd.Flags().GetString("format")
		if err := logging.ExportLogEntries(entries, output, format); err != nil {
			return err
		}
		fmt.Printf("exported %d record(s) to %s\n", len(entries), output)
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s - %s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)
		if e.Key != "" {
			line += "  key=" + e.Key
		}
		fmt.Println(line)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halverson/dispatch/internal/backend"
	"github.com/halverson/dispatch/internal/config"
	"github.com/halverson/dispatch/internal/coordination"
	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/executor"
	"github.com/halverson/dispatch/internal/logging"
	"github.com/halverson/dispatch/internal/queue"
	"github.com/halverson/dispatch/internal/scaling"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the coordinator loop",
	Long: `Run the coordinator against the local backend until interrupted.

Task manifests dropped in the spool directory are enqueued as they
appear; the heartbeat ticks at the configured interval, dispatching
queued attempts into available slots and collecting outcomes.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("spool", "", "spool directory for task manifests (overrides spool.dir)")
	runCmd.Flags().Int("parallelism", 0, "slot ceiling (overrides executor.parallelism)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if spoolDir, _ := cmd.Flags().GetString("spool"); spoolDir != "" {
		cfg.Spool.Dir = spoolDir
	}
	if par, _ := cmd.Flags().GetInt("parallelism"); par > 0 {
		cfg.Executor.Parallelism = par
	}

	logger, closeLog, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	be := backend.NewLocal()

	var opts []coordination.Option
	if cfg.Scaling.Enabled {
		opts = append(opts, coordination.WithScalingPolicy(scaling.NewPolicy(
			scaling.WithMinSlots(cfg.Scaling.MinSlots),
			scaling.WithMaxSlots(cfg.Scaling.MaxSlots),
			scaling.WithCooldownPeriod(cfg.Scaling.Cooldown()),
		)))
	} else {
		opts = append(opts, coordination.WithScalingDisabled())
	}

	hub, err := coordination.NewHub(coordination.Config{
		Bus:     event.NewBus(),
		Backend: be,
		Logger:  logger,
		Executor: executor.Config{
			Parallelism: cfg.Executor.Parallelism,
			FaultPolicy: queue.FaultPolicy(cfg.Executor.SubmissionFaultPolicy),
			StateDir:    cfg.Paths.StateDir,
		},
		SpoolDir: cfg.Spool.Dir,
	}, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = hub.Stop() }()

	ex := hub.Executor()
	logger.Info("coordinator running",
		"run_id", ex.RunID(),
		"parallelism", ex.Capacity(),
		"spool", cfg.Spool.Dir,
		"state_dir", cfg.Paths.StateDir)

	ticker := time.NewTicker(cfg.Executor.HeartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down; waiting for running attempts")
			be.Wait()
			ex.Heartbeat(context.Background()) // collect final outcomes
			report(ex)
			return nil
		case <-ticker.C:
			ex.Heartbeat(ctx)
		}
	}
}

// report prints a final outcome summary to stdout.
func report(ex *executor.Executor) {
	outcomes := ex.Drain()
	if len(outcomes) == 0 {
		return
	}
	fmt.Printf("%d attempt(s) finished:\n", len(outcomes))
	for key, entry := range outcomes {
		line := fmt.Sprintf("  %s  %s", entry.State, key.String())
		if entry.Info != "" {
			line += "  (" + entry.Info + ")"
		}
		fmt.Println(line)
	}
}

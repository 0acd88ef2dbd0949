package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/cli"
	"github.com/bleikamp/ply/config"
	"github.com/bleikamp/ply/errors"
	"github.com/bleikamp/ply/internal/relay/engine"
	"github.com/bleikamp/ply/internal/relay/metrics"
	"github.com/bleikamp/ply/internal/relay/pidfile"
	"github.com/bleikamp/ply/internal/relay/server"
	"github.com/bleikamp/ply/logging"
	"github.com/bleikamp/ply/pkg/paths"
	"github.com/bleikamp/ply/pkg/process"
	"github.com/bleikamp/ply/pkg/relayclient"
)

const shutdownTimeout = 5 * time.Second

// NewRelayCmd returns the relay command with its lifecycle subcommands.
func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run and manage the relay",
		Long:  "Start, stop and inspect the relay that connects browser agents to inspector UIs.",
	}

	cmd.AddCommand(newRelayStartCmd())
	cmd.AddCommand(newRelayStopCmd())
	cmd.AddCommand(newRelayStatusCmd())

	return cmd
}

func pidPath(cfg *config.Config) string {
	if cfg.PidFile != "" {
		return cfg.PidFile
	}
	return paths.PidFilePath()
}

func newRelayStartCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the relay",
		Long:  "Start the relay in the foreground. It stops on SIGINT or SIGTERM.",
		Example: `# Start with the configuration found from the working directory
ply relay start

# Listen on another port
ply relay start --port 9229`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger := logging.NewLogger("relay")
			pid := pidPath(cfg)

			// 1. Acquire lock
			if err := pidfile.Acquire(pid); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pid); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Metrics, engine and server
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			eng := engine.New(logging.NewLogger("engine"), metrics.New(reg), engine.Options{
				ScopeErrorsToRequester: cfg.Relay.ScopeErrorsToRequester,
			})

			srv := server.New(eng, cfg.Relay, logging.NewLogger("server"))
			srv.SetGatherer(reg)
			srv.SetRunningConfig(&server.RunningConfig{
				Config:     cfg,
				ConfigFile: cfgPath,
				StartedAt:  time.Now(),
			})

			// 3. Signals
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engineCtx, stopEngine := context.WithCancel(context.Background())
			defer stopEngine()
			go eng.Run(engineCtx)

			// 4. Hot-reload of the logging section
			if cfgPath != "" {
				verbose := cli.GetOptions(cmd).Verbose
				watcher, err := config.NewWatcher(cfgPath, 0, logging.NewLogger("config-watcher"), func(next *config.Config) {
					logCfg, err := cli.LoggingConfig(next, verbose)
					if err != nil {
						logger.WithError(err).Warn("Ignoring logging section")
						return
					}
					logging.Configure(logCfg)
					logger.Info("Logging configuration reloaded")
				})
				if err != nil {
					logger.WithError(err).Warn("Config file will not be watched")
				} else {
					go watcher.Run(ctx)
				}
			}

			// 5. Serve until a signal arrives
			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.ListenAndServe(cfg.Addr())
			}()

			logger.WithField("pid", os.Getpid()).WithField("addr", cfg.Addr()).Info("Starting relay")

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
				logger.Info("Received stop signal")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Server shutdown error: %v", err)
			}
			return <-serveErr
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on (overrides the config file)")
	return cmd
}

func newRelayStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			running, pid, err := pidfile.IsRunning(pidPath(cfg))
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Relay is not running")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*shutdownTimeout)
			defer cancel()
			if err := process.Terminate(ctx, pid); err != nil {
				return fmt.Errorf("failed to stop relay (PID %d): %w", pid, err)
			}

			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("Stopped relay (PID %d)", pid))
			return nil
		},
	}
}

// relayStatus is the --json output of `ply relay status`.
type relayStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Addr    string `json:"addr"`
	Healthy bool   `json:"healthy"`
}

func newRelayStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check relay status",
		Long:  "Report whether the relay process is alive and answering. Exits non-zero when it is stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			running, pid, err := pidfile.IsRunning(pidPath(cfg))
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			status := relayStatus{
				Running: running,
				PID:     pid,
				Addr:    clientAddr(cfg),
				Healthy: relayclient.New(clientAddr(cfg)).IsRunning(ctx),
			}
			if !running {
				status.PID = 0
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, _ := json.MarshalIndent(status, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
				if status.Running {
					pretty.Success(fmt.Sprintf("Running (PID: %d)", status.PID))
				} else {
					pretty.WarnPretty("Stopped")
				}
				pretty.Field("Address", status.Addr)
				pretty.Field("Healthy", status.Healthy)
			}

			if !status.Running {
				return errors.NotRunning(pidPath(cfg))
			}
			return nil
		},
	}
}

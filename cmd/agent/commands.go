package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"snmp-health-agent/internal/agent"
	"snmp-health-agent/internal/collector"
	"snmp-health-agent/internal/config"
	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/snmp"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "snmp-health-agent",
		Short:        "Polls SNMP v2c hosts and stores normalized health snapshots",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd.Context())
		},
	}
	root.AddCommand(
		newRunCommand(),
		newProbeCommand(),
		newPollCommand(),
		newCycleCommand(),
	)
	return root
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, agent.BuildLogger(cfg), nil
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, probe endpoint and admin API until signalled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd.Context())
		},
	}
}

func runAgent(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := agent.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("agent initialization failed", "error", err)
		return err
	}
	if err := a.Run(ctx); err != nil {
		logger.Error("agent runtime failed", "error", err)
		return err
	}
	return nil
}

func newProbeCommand() *cobra.Command {
	var community string
	cmd := &cobra.Command{
		Use:   "probe ADDRESS",
		Short: "Check SNMP connectivity and print the host's sysDescr",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			prober := collector.NewProber(snmp.NewTransport(logger), cfg.DefaultCommunity)
			descr, err := prober.Probe(args[0], community)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), descr)
			return err
		},
	}
	cmd.Flags().StringVar(&community, "community", "", "SNMP community (defaults to SNMPHEALTH_DEFAULT_COMMUNITY)")
	return cmd
}

func newPollCommand() *cobra.Command {
	var community, osName string
	cmd := &cobra.Command{
		Use:   "poll ADDRESS",
		Short: "Poll one host once and print its snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := model.ParseOSFamily(osName)
			if err != nil {
				return err
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			poller := collector.NewPoller(snmp.NewTransport(logger), nil, cfg.DefaultCommunity, logger)
			snap, err := poller.Poll(cmd.Context(), model.HostTarget{Address: args[0], Community: community, OSFamily: family})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVar(&community, "community", "", "SNMP community (defaults to SNMPHEALTH_DEFAULT_COMMUNITY)")
	cmd.Flags().StringVar(&osName, "os", "", "skip detection and force the OS family (linux|windows)")
	return cmd
}

func newCycleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run one polling cycle against the configured registry and store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := agent.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(context.Background()); cerr != nil {
					logger.Warn("backend close failed", "error", cerr)
				}
			}()

			report, err := a.Cycle(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return report.Err()
		},
	}
}

func printReport(w io.Writer, report collector.CycleReport) {
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "%-20s %-8s error: %v\n", res.Address, res.OSFamily, res.Err)
			continue
		}
		s := res.Snapshot
		fmt.Fprintf(w, "%-20s %-8s %-8s cpu=%.2f%% ram=%.2f%% disk=%.2f%% net=%.2fMB up=%s\n",
			res.Address, s.OSFamily, s.Status, s.CPUUtilizationPct, s.RAMUsagePct, s.DiskUsagePct, s.NetworkTrafficMB, s.Uptime)
	}
	fmt.Fprintf(w, "%s: %d hosts, %d ok, %d failed in %s\n",
		report.Outcome(), report.Hosts(), report.Succeeded(), report.Failed(), report.Duration)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

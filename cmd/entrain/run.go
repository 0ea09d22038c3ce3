package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain"
	"github.com/entrainlab/entrain/internal/device"
)

var (
	runDuration  time.Duration
	telemetryOut string
)

const defaultRunDuration = 30 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a timed stimulation session on simulated devices",
		RunE:  runSession,
	}
	cmd.Flags().DurationVarP(&runDuration, "duration", "d", defaultRunDuration, "session length")
	cmd.Flags().StringVar(&telemetryOut, "telemetry", "", "write per-frame telemetry CSV to this path")
	return cmd
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig()
	if err != nil {
		return err
	}

	sink, err := device.NewSimSink(cfg.SampleRate, 0, false)
	if err != nil {
		return err
	}
	surface := device.NewSimSurface(cfg.RefreshRate)

	session, err := entrain.NewSession(cfg, sink, surface)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimer := context.WithTimeout(ctx, runDuration)
	defer cancelTimer()

	log.Printf("session: carrier %.1f Hz, modulation %.1f Hz (depth %.2f), refresh %.1f Hz",
		cfg.CarrierHz, cfg.ModulationHz, cfg.ModulationDepth, cfg.RefreshRate)
	if !cfg.FlickerExact() {
		log.Printf("session: %.1f Hz flicker is approximate on a %.1f Hz display; see effective_hz",
			cfg.ModulationHz, cfg.RefreshRate)
	}

	if err := session.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := session.Stop(); err != nil {
		return err
	}

	summary := session.Summary()
	fmt.Printf("frames:          %d\n", session.Recorder().Len())
	fmt.Printf("effective hz:    %.3f\n", summary.EffectiveHz)
	fmt.Printf("jitter p50/p95/p99: %.3f / %.3f / %.3f ms\n",
		summary.JitterP50, summary.JitterP95, summary.JitterP99)
	fmt.Printf("dropped frames:  %d\n", summary.DroppedFrames)

	if telemetryOut != "" {
		if err := session.Export(telemetryOut); err != nil {
			return err
		}
		log.Printf("telemetry written to %s", telemetryOut)
	}
	return nil
}

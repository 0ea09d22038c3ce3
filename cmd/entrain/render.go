package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/synth"
	"github.com/entrainlab/entrain/internal/wavio"
)

var (
	renderDuration time.Duration
	renderOut      string
)

const defaultRenderDuration = time.Minute

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the modulated stimulus offline to a stereo WAV file",
		RunE:  renderTrack,
	}
	cmd.Flags().DurationVarP(&renderDuration, "duration", "d", defaultRenderDuration, "track length")
	cmd.Flags().StringVarP(&renderOut, "out", "o", "track.wav", "output WAV path")
	return cmd
}

func renderTrack(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig()
	if err != nil {
		return err
	}

	frames := int(renderDuration.Seconds() * cfg.SampleRate)
	if frames <= 0 {
		return fmt.Errorf("render: duration %s yields no frames", renderDuration)
	}

	track, err := synth.RenderTrack(synth.Params{
		CarrierHz:    cfg.CarrierHz,
		ModulationHz: cfg.ModulationHz,
		Depth:        cfg.ModulationDepth,
		SampleRate:   cfg.SampleRate,
	}, frames)
	if err != nil {
		return err
	}

	if err := wavio.WriteStereo(renderOut, track, int(cfg.SampleRate)); err != nil {
		return err
	}
	log.Printf("rendered %d frames (%s) to %s", frames, renderDuration, renderOut)
	return nil
}

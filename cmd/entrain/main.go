// Command entrain runs entrainment stimulation sessions and hardware
// calibration analysis.
//
// Usage:
//
//	entrain run -d 30s                         # timed session on simulated devices
//	entrain run --telemetry session.csv        # with per-frame CSV export
//	entrain render -d 5m -o track.wav          # offline stereo WAV render
//	entrain calibrate -s 40=cap40.wav \
//	    --stimulus click.wav -r trial1.wav \
//	    -o profile.json                        # analyze captured loopback audio
//
// Session parameters come from defaults, then the TOML config file,
// then ENTRAIN_* environment variables, then flags.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string

	flagCarrierHz    float64
	flagModulationHz float64
	flagDepth        float64
	flagSampleRate   float64
	flagRefreshRate  float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "entrain",
		Short:         "Audio/visual entrainment stimulus engine and hardware calibrator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().Float64Var(&flagCarrierHz, "carrier", 0, "carrier frequency in Hz (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagModulationHz, "rate", 0, "modulation/flicker rate in Hz (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagDepth, "depth", -1, "modulation depth 0..1 (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagSampleRate, "sample-rate", 0, "audio sample rate in Hz (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagRefreshRate, "refresh", 0, "display refresh rate in Hz (overrides config)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	return rootCmd
}

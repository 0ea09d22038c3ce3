package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/calib"
	"github.com/entrainlab/entrain/internal/wavio"
)

var (
	calibSegments  []string
	calibStimulus  string
	calibResponses []string
	calibOut       string
)

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Analyze captured loopback audio into a hardware profile",
		Long: `Calibrate measures a playback chain from captured WAV files.

Modulation-transfer segments are given as rate=path pairs, each a mono
capture of an AM tone played through the chain at that rate. Latency
trials pair one emitted click stimulus WAV with one or more recorded
loopback response WAVs. All files must share one sample rate.`,
		RunE: calibrate,
	}
	cmd.Flags().StringArrayVarP(&calibSegments, "segment", "s", nil, "MTF capture as rate=path (repeatable)")
	cmd.Flags().StringVar(&calibStimulus, "stimulus", "", "click stimulus WAV for latency trials")
	cmd.Flags().StringArrayVarP(&calibResponses, "response", "r", nil, "loopback response WAV (repeatable)")
	cmd.Flags().StringVarP(&calibOut, "out", "o", "profile.json", "output profile path")
	return cmd
}

func calibrate(cmd *cobra.Command, args []string) error {
	_, deviceID, err := resolveConfig()
	if err != nil {
		return err
	}
	if len(calibSegments) == 0 && calibStimulus == "" {
		return fmt.Errorf("calibrate: nothing to analyze; provide --segment and/or --stimulus with --response")
	}

	capture := calib.CaptureSet{DeviceID: deviceID}

	for _, spec := range calibSegments {
		rate, path, err := parseSegmentSpec(spec)
		if err != nil {
			return err
		}
		samples, sampleRate, err := wavio.ReadMono(path)
		if err != nil {
			return err
		}
		if err := adoptSampleRate(&capture, sampleRate, path); err != nil {
			return err
		}
		capture.Segments = append(capture.Segments, calib.RateSegment{RateHz: rate, Samples: samples})
	}

	if calibStimulus != "" {
		if len(calibResponses) == 0 {
			return fmt.Errorf("calibrate: --stimulus needs at least one --response")
		}
		stimulus, sampleRate, err := wavio.ReadMono(calibStimulus)
		if err != nil {
			return err
		}
		if err := adoptSampleRate(&capture, sampleRate, calibStimulus); err != nil {
			return err
		}
		for _, path := range calibResponses {
			response, respRate, err := wavio.ReadMono(path)
			if err != nil {
				return err
			}
			if err := adoptSampleRate(&capture, respRate, path); err != nil {
				return err
			}
			capture.Trials = append(capture.Trials, calib.LatencyTrial{
				Stimulus: stimulus,
				Response: response,
			})
		}
	}

	profile, err := calib.Analyzer{}.Analyze(capture)
	if err != nil {
		return err
	}

	printProfile(profile)

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("calibrate: encode profile: %w", err)
	}
	if err := os.WriteFile(calibOut, data, 0o644); err != nil {
		return fmt.Errorf("calibrate: write %s: %w", calibOut, err)
	}
	log.Printf("profile written to %s", calibOut)
	return nil
}

// parseSegmentSpec splits a "rate=path" argument.
func parseSegmentSpec(spec string) (float64, string, error) {
	rateStr, path, found := strings.Cut(spec, "=")
	if !found || path == "" {
		return 0, "", fmt.Errorf("calibrate: segment %q is not rate=path", spec)
	}
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		return 0, "", fmt.Errorf("calibrate: segment %q has invalid rate", spec)
	}
	return rate, path, nil
}

// adoptSampleRate records the first file's rate and rejects mismatches.
func adoptSampleRate(capture *calib.CaptureSet, rate int, path string) error {
	if capture.SampleRate == 0 {
		capture.SampleRate = rate
		return nil
	}
	if capture.SampleRate != rate {
		return fmt.Errorf("calibrate: %s is %d Hz, expected %d Hz", path, rate, capture.SampleRate)
	}
	return nil
}

func printProfile(profile *calib.HardwareProfile) {
	fmt.Printf("device:       %s\n", profile.DeviceID)
	for _, rate := range calib.SortedRates(profile.MTFScores) {
		score := profile.MTFScores[rate]
		fmt.Printf("mtf %3s Hz:    %.4f (%s)\n", rate, score, calib.GradeScore(score))
	}
	if len(profile.MTFScores) > 0 {
		if profile.MTFPassHz > 0 {
			fmt.Printf("mtf pass up to %.0f Hz\n", profile.MTFPassHz)
		} else {
			fmt.Println("mtf: no rate passed")
		}
	}
	if profile.ExcludedTrials > 0 || profile.LatencyMs != 0 {
		fmt.Printf("latency:      %.2f ms (jitter %.2f ms, %d trial(s) excluded)\n",
			profile.LatencyMs, profile.LatencyJitterMs, profile.ExcludedTrials)
	}
}

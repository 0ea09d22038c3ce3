package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader is the fixed column layout of a telemetry export.
var csvHeader = []string{"timestamp_us", "visual_on", "effective_hz", "jitter_ms"}

// floatPrecision is the formatting precision for float columns.
const floatPrecision = 6

// ExportCSV writes every sample recorded before the call as one CSV row,
// header first, in recording order. The sink is an explicit parameter;
// the recorder never writes to an ambient destination.
func (r *Recorder) ExportCSV(w io.Writer) error {
	samples := r.snapshot()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("telemetry: write header: %w", err)
	}
	for _, s := range samples {
		on := "0"
		if s.VisualOn {
			on = "1"
		}
		row := []string{
			strconv.FormatInt(s.TimestampUS, 10),
			on,
			strconv.FormatFloat(s.EffectiveHz, 'f', floatPrecision, 64),
			strconv.FormatFloat(s.JitterMs, 'f', floatPrecision, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("telemetry: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("telemetry: flush: %w", err)
	}
	return nil
}

// Export writes the CSV log to a file at path.
func (r *Recorder) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: create %s: %w", path, err)
	}
	if err := r.ExportCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("telemetry: close %s: %w", path, err)
	}
	return nil
}

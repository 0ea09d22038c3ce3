// Package entrain drives synchronized audio and visual periodic stimuli
// at precise, measurable frequencies and verifies that the intended
// modulation survives the playback hardware.
//
// # Architecture
//
// A live session runs two independent real-time loops:
//
//	Audio:  phase accumulators -> AM stereo buffers -> output sink
//	Visual: vsync pacing wait  -> flicker toggle    -> present
//
// Both loops report into a shared telemetry recorder, the only mutable
// state they share; its mutex is held only for constant-time appends so
// neither loop can delay the other. A [Session] wires the three
// together, starts and stops them symmetrically, and derives a
// [telemetry.SessionSummary] on demand.
//
// # Quick Start
//
//	cfg := entrain.DefaultConfig()
//	cfg.ModulationHz = 40
//
//	sink, _ := device.NewSimSink(cfg.SampleRate, 0, false)
//	surface := device.NewSimSurface(cfg.RefreshRate)
//
//	session, err := entrain.NewSession(cfg, sink, surface)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	time.Sleep(time.Minute)
//	session.Stop()
//	fmt.Printf("%+v\n", session.Summary())
//
// Real device backends implement [synth.Sink] and [present.Surface];
// the device package ships wall-clock simulations of both so sessions
// run on machines without audio or display hardware.
//
// # Flicker accuracy
//
// The visual loop toggles a binary state once per vsync, so the flicker
// frequency is phase-locked to the integer submultiples of the refresh
// rate the display can actually produce. [StimulationConfig.FlickerExact]
// reports whether the configured rate is reachable exactly; otherwise
// the telemetry's effective_hz shows what was achieved.
//
// # Hardware calibration
//
// The calib package measures a physical playback chain offline:
// modulation-transfer scores per rate from captured loopback audio, and
// round-trip latency from click-trial cross-correlation. It never
// touches devices itself; it is a pure function of captured buffers.
package entrain

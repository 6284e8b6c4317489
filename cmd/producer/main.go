package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/apachedragonfly/ekg-wave/internal/config"
	"github.com/apachedragonfly/ekg-wave/internal/logging"
	"github.com/apachedragonfly/ekg-wave/internal/metrics"
	"github.com/apachedragonfly/ekg-wave/internal/scenario"
	"github.com/apachedragonfly/ekg-wave/internal/signal"
	"github.com/apachedragonfly/ekg-wave/internal/stream"
)

func main() {

	var (
		cfgPath     = flag.String("config", "", "properties file (default $EKG_PROPERTIES)")
		sinkKind    = flag.String("sink", "", "nats | kafka | mqtt")
		natsURL     = flag.String("nats", "", "NATS url")
		subject     = flag.String("subject", "", "wave subject")
		rhythm      = flag.String("rhythm", "", "normal | afib | vtach")
		lead        = flag.String("lead", "", "lead name (I..V6)")
		hr          = flag.Float64("hr", 0, "heart rate bpm")
		batch       = flag.Int("batch", 0, "samples per message")
		noise       = flag.Bool("noise", false, "add baseline noise")
		scenarioArg = flag.String("scenario", "", "scenario yaml")
		metricsAddr = flag.String("metrics", "", "address for /metrics (disabled if empty)")
	)
	flag.Parse()

	log := logging.New("producer")
	defer log.Close()

	path := config.Path(*cfgPath)
	cfg, err := config.Load(path, log.Logger)
	if err != nil {
		log.Error("config load failed", "path", path, "err", err)
		os.Exit(1)
	}

	// los flags explícitos pisan al archivo
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sink":
			cfg.Sink = *sinkKind
		case "nats":
			cfg.NATSURL = *natsURL
		case "subject":
			cfg.WaveSubject = *subject
		case "rhythm":
			cfg.Synth.Rhythm = signal.ParseRhythm(*rhythm)
		case "lead":
			cfg.Synth.Lead = signal.ParseLead(*lead)
		case "hr":
			cfg.Synth.HeartRate = *hr
		case "batch":
			if *batch > 0 {
				cfg.Batch = *batch
			}
		case "noise":
			cfg.Synth.AddNoise = *noise
		case "scenario":
			cfg.Scenario = *scenarioArg
		}
	})

	var sc *scenario.Scenario
	if cfg.Scenario != "" {
		sc, err = scenario.Load(cfg.Scenario)
		if err != nil {
			log.Error("scenario load failed", "path", cfg.Scenario, "err", err)
			os.Exit(1)
		}
		log.Info("scenario loaded", "name", sc.Name, "phases", len(sc.Phases), "loop", sc.Loop)
	}

	streamer, err := signal.NewStreamer(cfg.Synth)
	if err != nil {
		log.Error("invalid synth params", "err", err)
		os.Exit(1)
	}

	runID := stream.NewRunID()
	sink, err := stream.NewSink(stream.SinkConfig{
		Kind:         cfg.Sink,
		NATSURL:      cfg.NATSURL,
		KafkaBrokers: cfg.KafkaBrokers,
		MQTTBroker:   cfg.MQTTBroker,
		Key:          runID,
	})
	if err != nil {
		log.Error("sink init failed", "sink", cfg.Sink, "err", err)
		os.Exit(1)
	}
	defer sink.Close()

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			log.Info("metrics listening", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, m.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "err", err)
			}
		}()
	}

	ctx, cancel := osSignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	publishParams := func(p signal.Params) {
		b, err := stream.ParamsMessage(cfg.ParamsSubject, runID, p).Marshal()
		if err != nil {
			log.Error("params marshal failed", "err", err)
			return
		}
		if err := sink.Publish(ctx, cfg.ParamsSubject, b); err != nil {
			log.Warn("params publish failed", "err", err)
		}
	}
	setParams := func(p signal.Params, reason string) {
		if err := streamer.SetParams(p); err != nil {
			log.Warn("params rejected, keeping previous", "reason", reason, "err", err)
			return
		}
		log.Info("params changed", "reason", reason, "rhythm", p.Rhythm, "lead", p.Lead, "hr", p.HeartRate)
		publishParams(p)
	}

	updates := make(chan config.Config, 1)
	if path != "" {
		err := config.Watch(ctx, path, log.Logger, func(c config.Config) {
			select {
			case updates <- c:
			default:
				log.Warn("config update dropped, previous one still pending")
			}
		})
		if err != nil {
			log.Warn("config watch disabled", "err", err)
		}
	}

	log.Info("producer started",
		"run", runID, "sink", cfg.Sink, "subject", cfg.WaveSubject,
		"rhythm", cfg.Synth.Rhythm, "lead", cfg.Synth.Lead, "hr", cfg.Synth.HeartRate, "batch", cfg.Batch)
	publishParams(streamer.Params())

	base := cfg.Synth
	phase := -1

	// un tick por frame: batch muestras a SampleRate
	ticker := time.NewTicker(time.Duration(cfg.Batch) * time.Second / signal.SampleRate)
	defer ticker.Stop()

	buffer := make([]float32, cfg.Batch)

	for {
		select {
		case <-ctx.Done():
			log.Info("producer stopping", "elapsed", streamer.Elapsed())
			return

		case c := <-updates:
			base = c.Synth
			p := base
			if sc != nil && phase >= 0 {
				p = sc.Phases[phase].Apply(base)
			}
			setParams(p, "config")

		case <-ticker.C:
			if sc != nil {
				if i := sc.Index(streamer.Elapsed()); i >= 0 && i != phase {
					phase = i
					setParams(sc.Phases[i].Apply(base), "scenario:"+sc.Phases[i].Name)
				}
			}

			n := streamer.Fill(buffer)
			err := sink.Publish(ctx, cfg.WaveSubject, stream.EncodeFrame(buffer[:n]))
			m.Published(cfg.Sink, n, err)
			if err != nil {
				log.Warn("wave publish failed", "err", err)
			}
		}
	}
}

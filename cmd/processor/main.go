package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/apachedragonfly/ekg-wave/internal/analysis"
	"github.com/apachedragonfly/ekg-wave/internal/config"
	"github.com/apachedragonfly/ekg-wave/internal/logging"
	"github.com/apachedragonfly/ekg-wave/internal/metrics"
	"github.com/apachedragonfly/ekg-wave/internal/signal"
	"github.com/apachedragonfly/ekg-wave/internal/stream"
)

func main() {

	var (
		cfgPath     = flag.String("config", "", "properties file (default $EKG_PROPERTIES)")
		natsURL     = flag.String("nats", "", "NATS url")
		in          = flag.String("in", "", "input subject")
		out         = flag.String("out", "", "output subject")
		threshold   = flag.Float64("threshold", analysis.DefaultThreshold, "R peak threshold (mV)")
		metricsAddr = flag.String("metrics", "", "address for /metrics (disabled if empty)")
	)
	flag.Parse()

	log := logging.New("processor")
	defer log.Close()

	cfg, err := config.Load(config.Path(*cfgPath), log.Logger)
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *natsURL != "" {
		cfg.NATSURL = *natsURL
	}
	if *in != "" {
		cfg.WaveSubject = *in
	}
	if *out != "" {
		cfg.ParamsSubject = *out
	}

	nc, err := stream.Connect(cfg.NATSURL)
	if err != nil {
		log.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			log.Info("metrics listening", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, m.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "err", err)
			}
		}()
	}

	detector := analysis.NewHRDetector(*threshold, analysis.DefaultRefractory)

	// Los callbacks de una misma suscripción no corren en paralelo, pero la
	// de params y la de ondas sí; runs pasa el run id sin compartir estado.
	runs := make(chan string, 1)
	var runID string
	var n int64

	_, err = nc.Subscribe(cfg.ParamsSubject, func(msg *nats.Msg) {
		var pm stream.ParamMsg
		if err := json.Unmarshal(msg.Data, &pm); err != nil || pm.Source != "producer" {
			return
		}
		select {
		case runs <- pm.RunID:
		default:
		}
	})
	if err != nil {
		log.Error("subscribe failed", "subject", cfg.ParamsSubject, "err", err)
		os.Exit(1)
	}

	_, err = nc.Subscribe(cfg.WaveSubject, func(msg *nats.Msg) {
		select {
		case id := <-runs:
			if id != runID {
				log.Info("new producer run", "run", id)
				runID = id
				detector.Reset()
				n = 0
			}
		default:
		}

		samples, err := stream.DecodeFrame(msg.Data)
		if err != nil {
			log.Warn("bad wave frame", "err", err)
			return
		}

		for _, v := range samples {
			// reloj de muestreo: no depende de cuándo llegó el frame
			ts := time.Duration(n) * time.Second / signal.SampleRate
			n++

			if bpm, ok := detector.Process(float64(v), ts); ok {
				m.Beat(bpm)
				b, err := stream.DetectedMessage(cfg.ParamsSubject, runID, bpm).Marshal()
				if err != nil {
					continue
				}
				if err := nc.Publish(cfg.ParamsSubject, b); err != nil {
					log.Warn("params publish failed", "err", err)
				}
				log.Info("HR detected", "bpm", bpm, "run", runID)
			}
		}
	})
	if err != nil {
		log.Error("subscribe failed", "subject", cfg.WaveSubject, "err", err)
		os.Exit(1)
	}

	log.Info("processor running", "in", cfg.WaveSubject, "out", cfg.ParamsSubject)

	ctx, cancel := osSignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	log.Info("processor stopping")
}

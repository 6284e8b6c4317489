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

	"github.com/nats-io/nats.go"

	"github.com/apachedragonfly/ekg-wave/internal/api"
	"github.com/apachedragonfly/ekg-wave/internal/config"
	"github.com/apachedragonfly/ekg-wave/internal/logging"
	"github.com/apachedragonfly/ekg-wave/internal/metrics"
	"github.com/apachedragonfly/ekg-wave/internal/stream"
)

func main() {

	var (
		cfgPath = flag.String("config", "", "properties file (default $EKG_PROPERTIES)")
		natsURL = flag.String("nats", "", "NATS url")
		addr    = flag.String("addr", "", "http address")
		web     = flag.String("web", "", "static files directory")
	)
	flag.Parse()

	log := logging.New("server")
	defer log.Close()

	cfg, err := config.Load(config.Path(*cfgPath), log.Logger)
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *natsURL != "" {
		cfg.NATSURL = *natsURL
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *web != "" {
		cfg.WebDir = *web
	}

	nc, err := stream.Connect(cfg.NATSURL)
	if err != nil {
		log.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	m := metrics.New()
	hub := api.NewHub(log.Logger, m)

	// Waves (binario passthrough)
	if _, err := nc.Subscribe(cfg.WaveSubject, func(msg *nats.Msg) {
		hub.BroadcastBinary(msg.Data)
	}); err != nil {
		log.Error("subscribe failed", "subject", cfg.WaveSubject, "err", err)
		os.Exit(1)
	}

	// Params (JSON)
	if _, err := nc.Subscribe(cfg.ParamsSubject, func(msg *nats.Msg) {
		hub.BroadcastText(msg.Data)
	}); err != nil {
		log.Error("subscribe failed", "subject", cfg.ParamsSubject, "err", err)
		os.Exit(1)
	}

	router := api.NewRouter(&api.Handlers{Log: log.Logger, Metrics: m}, hub, m, cfg.WebDir)
	server := api.NewServer(cfg.ListenAddr, log.Logger, router)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	ch := make(chan os.Signal, 1)
	osSignal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Stop(ctx); err != nil {
		log.Warn("http shutdown", "err", err)
	}
	log.Info("server stopped")
}

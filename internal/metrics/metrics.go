// Package metrics expone los contadores Prometheus de los tres comandos.
// Todos los métodos aceptan un *Metrics nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	synthDuration     prometheus.Histogram
	samplesSynth      prometheus.Counter
	samplesPublished  *prometheus.CounterVec
	framesPublished   *prometheus.CounterVec
	publishErrors     *prometheus.CounterVec
	wsClients         prometheus.Gauge
	detectedBPM       prometheus.Gauge
	beatsDetected     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		synthDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ekg_synth_duration_seconds",
			Help:    "Time spent synthesizing a full waveform series.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		samplesSynth: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ekg_samples_synthesized_total",
			Help: "Total samples synthesized for waveform API requests.",
		}),
		samplesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ekg_samples_published_total",
			Help: "Total streamed samples published by sink kind.",
		}, []string{"sink"}),
		framesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ekg_frames_published_total",
			Help: "Total frames published by sink kind.",
		}, []string{"sink"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ekg_publish_errors_total",
			Help: "Total publish failures by sink kind.",
		}, []string{"sink"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ekg_ws_clients",
			Help: "Websocket clients currently connected.",
		}),
		detectedBPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ekg_detected_bpm",
			Help: "Last heart rate detected from the stream.",
		}),
		beatsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ekg_beats_detected_total",
			Help: "Total R peaks detected from the stream.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.synthDuration,
		m.samplesSynth,
		m.samplesPublished,
		m.framesPublished,
		m.publishErrors,
		m.wsClients,
		m.detectedBPM,
		m.beatsDetected,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Synthesized(d time.Duration, samples int) {
	if m == nil {
		return
	}
	m.synthDuration.Observe(d.Seconds())
	m.samplesSynth.Add(float64(samples))
}

func (m *Metrics) Published(sink string, samples int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishErrors.WithLabelValues(sink).Inc()
		return
	}
	m.framesPublished.WithLabelValues(sink).Inc()
	m.samplesPublished.WithLabelValues(sink).Add(float64(samples))
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.wsClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.wsClients.Dec()
}

func (m *Metrics) Beat(bpm int) {
	if m == nil {
		return
	}
	m.beatsDetected.Inc()
	m.detectedBPM.Set(float64(bpm))
}

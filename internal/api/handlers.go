package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apachedragonfly/ekg-wave/internal/analysis"
	"github.com/apachedragonfly/ekg-wave/internal/metrics"
	"github.com/apachedragonfly/ekg-wave/internal/signal"
	"github.com/apachedragonfly/ekg-wave/internal/stream"
)

var errInvalidNumber = errors.New("invalid number")

type Handlers struct {
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// WaveformResponse es lo que dibuja el monitor. Samples, Peak y Trough son
// de la ventana pedida (from/to); Duration y Measured, de la serie completa.
type WaveformResponse struct {
	Params         signal.Params     `json:"params"`
	Profile        signal.Profile    `json:"profile"`
	SampleRate     int               `json:"sampleRate"`
	PointsPerCycle int               `json:"pointsPerCycle"`
	Duration       float64           `json:"duration"`
	Measured       analysis.Estimate `json:"measured"`
	Peak           *signal.Sample    `json:"peak,omitempty"`
	Trough         *signal.Sample    `json:"trough,omitempty"`
	Samples        signal.Series     `json:"samples"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ts": time.Now().UTC()})
}

// Waveform sintetiza con los parámetros del query string, recortados a los
// rangos del monitor. Un número mal formado o no finito es 400.
// format=binary devuelve los voltajes como frame float32 little-endian.
func (h *Handlers) Waveform(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parseParams(q)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	p = p.Clamp()

	var opts []signal.Option
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.badRequest(w, fmt.Sprintf("seed %q: %s", raw, errInvalidNumber))
			return
		}
		opts = append(opts, signal.WithRand(rand.New(rand.NewSource(seed))))
	}

	start := time.Now()
	synth, err := signal.NewSynthesizer(p, opts...)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	series := synth.Series()
	h.Metrics.Synthesized(time.Since(start), len(series))
	h.Log.Debug("waveform synthesized", "rhythm", p.Rhythm, "lead", p.Lead, "hr", p.HeartRate, "samples", len(series))

	window := series
	if q.Has("from") || q.Has("to") {
		from, err := parseFloat(q, "from", 0)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		to, err := parseFloat(q, "to", series.Duration())
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		window = series.Slice(from, to)
	}

	if q.Get("format") == "binary" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(stream.EncodeFrame(window.Float32())); err != nil {
			h.Log.Warn("response write failed", "err", err)
		}
		return
	}

	resp := WaveformResponse{
		Params:         p,
		Profile:        synth.Profile(),
		SampleRate:     signal.SampleRate,
		PointsPerCycle: synth.PointsPerCycle(),
		Duration:       series.Duration(),
		Measured:       measure(series),
		Samples:        window,
	}
	if i := window.Max(); i >= 0 {
		resp.Peak = &window[i]
	}
	if i := window.Min(); i >= 0 {
		resp.Trough = &window[i]
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// measure corre el detector con umbral relativo al pico, así derivaciones de
// baja amplitud también miden. Sin pico positivo no hay medición.
func measure(s signal.Series) analysis.Estimate {
	i := s.Max()
	if i < 0 || s[i].Voltage <= 0 {
		return analysis.Estimate{}
	}
	return analysis.EstimateRate(s, analysis.DefaultThreshold*s[i].Voltage)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pr, err := parseFloat(q, "pr", signal.DefaultParams().PRInterval)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	p := signal.Params{PRInterval: pr}.Clamp()
	h.writeJSON(w, http.StatusOK, signal.ProfileFor(signal.ParseRhythm(q.Get("rhythm")), signal.ParseLead(q.Get("lead")), p.PRInterval))
}

func (h *Handlers) Rhythms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, signal.Rhythms())
}

func (h *Handlers) Leads(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, signal.Leads())
}

// parseParams parte de DefaultParams; los nombres de ritmo y derivación
// desconocidos caen en sus valores por defecto.
func parseParams(q url.Values) (signal.Params, error) {
	p := signal.DefaultParams()
	if v := q.Get("rhythm"); v != "" {
		p.Rhythm = signal.ParseRhythm(v)
	}
	if v := q.Get("lead"); v != "" {
		p.Lead = signal.ParseLead(v)
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"hr", &p.HeartRate},
		{"pr", &p.PRInterval},
		{"qrs", &p.QRSWidth},
		{"qt", &p.QTInterval},
		{"gain", &p.AmplitudeGain},
		{"st", &p.STElevation},
	}
	for _, f := range floats {
		v, err := parseFloat(q, f.key, *f.dst)
		if err != nil {
			return p, err
		}
		*f.dst = v
	}
	if raw := q.Get("noise"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return p, fmt.Errorf("noise %q: invalid bool", raw)
		}
		p.AddNoise = b
	}
	return p, nil
}

// parseFloat devuelve def si key no está. NaN e Inf son errores.
func parseFloat(q url.Values, key string, def float64) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q: %w", key, raw, errInvalidNumber)
	}
	return v, nil
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", "error", msg)
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeJSON codifica antes de escribir el status: si falla, el cliente
// recibe un 500 en lugar de un 200 vacío.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.Log.Error("response encode failed", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response encoding failed"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n'))
}

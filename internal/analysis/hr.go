package analysis

import (
	"math"
	"time"

	"github.com/apachedragonfly/ekg-wave/internal/signal"
)

const (
	DefaultThreshold  = 0.6
	DefaultRefractory = 200 * time.Millisecond
)

// HRDetector mide la frecuencia por cruce ascendente de umbral. Trabaja con
// el reloj de muestreo, no con el de pared, para que el resultado no dependa
// de cómo llegan los frames.
type HRDetector struct {
	threshold    float64
	refractory   time.Duration
	lastPeakTime time.Duration
	havePeak     bool
	lastValue    float64
	initialized  bool
}

func NewHRDetector(threshold float64, refractory time.Duration) *HRDetector {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if refractory <= 0 {
		refractory = DefaultRefractory
	}
	return &HRDetector{
		threshold:  threshold,
		refractory: refractory,
	}
}

// Process devuelve BPM si detecta un nuevo latido
func (h *HRDetector) Process(value float64, ts time.Duration) (int, bool) {
	rr, ok := h.step(value, ts)
	if !ok {
		return 0, false
	}
	return int(math.Round(60 / rr.Seconds())), true
}

// step devuelve el intervalo RR cuando hay un cruce después de otro pico.
func (h *HRDetector) step(value float64, ts time.Duration) (time.Duration, bool) {
	defer func() { h.lastValue = value }()

	if !h.initialized {
		h.initialized = true
		return 0, false
	}
	if !(h.lastValue < h.threshold && value >= h.threshold) {
		return 0, false
	}
	if h.havePeak && ts-h.lastPeakTime <= h.refractory {
		return 0, false
	}
	prev, had := h.lastPeakTime, h.havePeak
	h.lastPeakTime, h.havePeak = ts, true
	if !had {
		return 0, false
	}
	return ts - prev, true
}

func (h *HRDetector) Reset() {
	*h = HRDetector{threshold: h.threshold, refractory: h.refractory}
}

// Estimate resume una serie: frecuencia media según los RR detectados.
type Estimate struct {
	BPM   float64       `json:"bpm"`
	Beats int           `json:"beats"`
	MinRR time.Duration `json:"minRR"`
	MaxRR time.Duration `json:"maxRR"`
}

// EstimateRate corre el detector sobre una serie completa. Beats es la
// cantidad de intervalos RR medidos; con menos de uno BPM es 0.
func EstimateRate(s signal.Series, threshold float64) Estimate {
	d := NewHRDetector(threshold, DefaultRefractory)
	var (
		est   Estimate
		total time.Duration
	)
	for _, x := range s {
		ts := time.Duration(x.Time * float64(time.Second))
		rr, ok := d.step(x.Voltage, ts)
		if !ok {
			continue
		}
		if est.Beats == 0 || rr < est.MinRR {
			est.MinRR = rr
		}
		if rr > est.MaxRR {
			est.MaxRR = rr
		}
		est.Beats++
		total += rr
	}
	if est.Beats > 0 {
		est.BPM = 60 / (total.Seconds() / float64(est.Beats))
	}
	return est
}

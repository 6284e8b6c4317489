package signal

import (
	"math"
	"math/rand"
	"time"
)

const (
	// SampleRate en Hz.
	SampleRate = 250
	// MinDuration es la ventana mínima en segundos; nunca menos de minCycles latidos.
	MinDuration = 5.0
	minCycles   = 3
)

// Sample es un punto del trazado (segundos, mV).
type Sample struct {
	Time    float64 `json:"t"`
	Voltage float64 `json:"v"`
}

type Option func(*Synthesizer)

// WithRand fija la fuente del ruido. Sin ella se usa una fuente sembrada con
// la hora, así que con AddNoise dos llamadas no dan lo mismo.
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) { s.rng = r }
}

// Synthesizer evalúa cualquier índice de muestra para un juego de parámetros.
// No es seguro para uso concurrente cuando AddNoise está activo.
type Synthesizer struct {
	params  Params
	profile Profile
	gen     generator
	ppc     int
	n       int
	scale   float64
	noise   float64
	rng     *rand.Rand
}

func NewSynthesizer(p Params, opts ...Option) (*Synthesizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prof := ProfileFor(p.Rhythm, p.Lead, p.PRInterval)

	cycle := 60 / p.HeartRate
	ppc := int(math.Round(cycle * SampleRate))
	if ppc < 1 {
		ppc = 1
	}
	duration := math.Max(MinDuration, minCycles*cycle)

	s := &Synthesizer{
		params:  p,
		profile: prof,
		gen:     newGenerator(p, prof),
		ppc:     ppc,
		n:       int(math.Round(SampleRate * duration)),
		scale:   leadScale(p.Lead) * p.AmplitudeGain,
		noise:   prof.BaselineNoise * noiseScale(p.HeartRate),
	}
	for _, o := range opts {
		o(s)
	}
	if p.AddNoise && s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

func (s *Synthesizer) Params() Params { return s.params }
func (s *Synthesizer) Profile() Profile { return s.profile }
func (s *Synthesizer) PointsPerCycle() int { return s.ppc }

// Len es la cantidad de muestras de la ventana completa.
func (s *Synthesizer) Len() int { return s.n }

// At evalúa la muestra i. i puede exceder Len: el latido sigue avanzando.
func (s *Synthesizer) At(i int) Sample {
	cycle := i / s.ppc
	phase := float64(i%s.ppc) / float64(s.ppc)

	v := s.gen.voltage(phase, cycle) * s.scale
	if s.params.AddNoise {
		v += (2*s.rng.Float64() - 1) * s.noise
	}
	return Sample{Time: float64(i) / SampleRate, Voltage: v}
}

// Series es la ventana completa de muestras.
func (s *Synthesizer) Series() Series {
	out := make(Series, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// Synthesize arma la ventana completa para p. Sólo falla si la frecuencia
// cardíaca no es válida.
func Synthesize(p Params, opts ...Option) (Series, error) {
	s, err := NewSynthesizer(p, opts...)
	if err != nil {
		return nil, err
	}
	return s.Series(), nil
}

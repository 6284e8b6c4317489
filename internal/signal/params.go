package signal

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidHeartRate: fuera de [SaneMinHeartRate, SaneMaxHeartRate] la
	// ventana no tiene un tamaño razonable.
	ErrInvalidHeartRate = errors.New("heart rate out of range")
	ErrNonFinite        = errors.New("params must be finite")
)

// Rango que acepta el motor.
const (
	SaneMinHeartRate = 20.0
	SaneMaxHeartRate = 300.0
)

// Rangos que expone la interfaz. El motor no los impone; ver Clamp.
const (
	MinHeartRate = 40.0
	MaxHeartRate = 180.0
	MinPR        = 0.12
	MaxPR        = 0.20
	MinQRS       = 0.06
	MaxQRS       = 0.12
	MinQT        = 0.30
	MaxQT        = 0.50
	MinGain      = 0.5
	MaxGain      = 2.0
	MinST        = -0.5
	MaxST        = 0.5
)

// Params son los parámetros de una síntesis. Se pasan por valor.
type Params struct {
	HeartRate     float64 `json:"heartRate"`
	Rhythm        Rhythm  `json:"rhythm"`
	Lead          Lead    `json:"lead"`
	PRInterval    float64 `json:"prInterval"`
	QRSWidth      float64 `json:"qrsWidth"`
	QTInterval    float64 `json:"qtInterval"`
	AmplitudeGain float64 `json:"amplitudeGain"`
	AddNoise      bool    `json:"addNoise"`
	// STElevation desplaza el segmento ST (mV) en ritmo normal y FA.
	STElevation float64 `json:"stElevation"`
}

func DefaultParams() Params {
	return Params{
		HeartRate:     72,
		Rhythm:        Normal,
		Lead:          LeadII,
		PRInterval:    0.16,
		QRSWidth:      0.08,
		QTInterval:    0.36,
		AmplitudeGain: 1.0,
	}
}

func (p Params) Validate() error {
	hr := p.HeartRate
	if math.IsNaN(hr) || hr < SaneMinHeartRate || hr > SaneMaxHeartRate {
		return fmt.Errorf("%w: got %v, want [%v, %v] bpm", ErrInvalidHeartRate, hr, SaneMinHeartRate, SaneMaxHeartRate)
	}
	for _, v := range []float64{p.PRInterval, p.QRSWidth, p.QTInterval, p.AmplitudeGain, p.STElevation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: got %v", ErrNonFinite, v)
		}
	}
	return nil
}

// Clamp devuelve una copia dentro de los rangos de la interfaz.
func (p Params) Clamp() Params {
	p.HeartRate = clamp(p.HeartRate, MinHeartRate, MaxHeartRate)
	p.PRInterval = clamp(p.PRInterval, MinPR, MaxPR)
	p.QRSWidth = clamp(p.QRSWidth, MinQRS, MaxQRS)
	p.QTInterval = clamp(p.QTInterval, MinQT, MaxQT)
	p.AmplitudeGain = clamp(p.AmplitudeGain, MinGain, MaxGain)
	if math.IsNaN(p.STElevation) {
		p.STElevation = 0
	}
	p.STElevation = clamp(p.STElevation, MinST, MaxST)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// leadScale normaliza la amplitud por derivación antes de la ganancia.
func leadScale(l Lead) float64 {
	if !l.valid() {
		l = LeadII
	}
	switch l {
	case LeadII, LeadV5:
		return 1.0
	case LeadV1, LeadV2:
		return 1.2
	default:
		return 0.9
	}
}

// noiseScale crece con la frecuencia: más ruido en taquicardia.
func noiseScale(hr float64) float64 {
	return 0.05 * (1 + (hr-70)/100)
}

// Package scenario describe secuencias de ritmos en YAML, por ejemplo 30s de
// sinusal, 20s de fibrilación y 10s de taquicardia ventricular.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/apachedragonfly/ekg-wave/internal/signal"
)

var (
	ErrNoPhases    = errors.New("scenario has no phases")
	ErrBadDuration = errors.New("invalid phase duration")
)

type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Loop        bool    `yaml:"loop"`
	Phases      []Phase `yaml:"phases"`

	durations []time.Duration
}

// Phase lleva sólo los parámetros que cambia; los campos nil heredan de la base.
type Phase struct {
	Name     string `yaml:"name"`
	Duration string `yaml:"duration"` // "30s", "2m", "unlimited"

	Rhythm        *string  `yaml:"rhythm,omitempty"`
	HeartRate     *float64 `yaml:"heart_rate,omitempty"`
	Lead          *string  `yaml:"lead,omitempty"`
	PRInterval    *float64 `yaml:"pr_interval,omitempty"`
	QRSWidth      *float64 `yaml:"qrs_width,omitempty"`
	QTInterval    *float64 `yaml:"qt_interval,omitempty"`
	AmplitudeGain *float64 `yaml:"amplitude_gain,omitempty"`
	AddNoise      *bool    `yaml:"add_noise,omitempty"`
	STElevation   *float64 `yaml:"st_elevation,omitempty"`
}

func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Phases) == 0 {
		return nil, ErrNoPhases
	}
	s.durations = make([]time.Duration, len(s.Phases))
	for i, ph := range s.Phases {
		d, unlimited, err := parseDuration(ph.Duration)
		if err != nil {
			return nil, fmt.Errorf("phase %d (%s): %w", i, ph.Name, err)
		}
		if unlimited && i != len(s.Phases)-1 {
			return nil, fmt.Errorf("phase %d (%s): only the last phase may be unlimited: %w", i, ph.Name, ErrBadDuration)
		}
		s.durations[i] = d
	}
	return &s, nil
}

// parseDuration devuelve 0 y unlimited=true para "" o "unlimited".
func parseDuration(s string) (time.Duration, bool, error) {
	if s == "" || s == "unlimited" {
		return 0, true, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false, fmt.Errorf("%q: %w", s, ErrBadDuration)
	}
	return d, false, nil
}

// Total es la duración de una pasada; 0 si la última fase es ilimitada.
func (s *Scenario) Total() time.Duration {
	var total time.Duration
	for _, d := range s.durations {
		if d == 0 {
			return 0
		}
		total += d
	}
	return total
}

// Index devuelve la fase activa en elapsed, o -1 si el escenario terminó.
func (s *Scenario) Index(elapsed time.Duration) int {
	if len(s.Phases) == 0 {
		return -1
	}
	total := s.Total()
	if total > 0 && elapsed >= total {
		if !s.Loop {
			return -1
		}
		elapsed %= total
	}
	var start time.Duration
	for i, d := range s.durations {
		if d == 0 || elapsed < start+d {
			return i
		}
		start += d
	}
	return len(s.Phases) - 1
}

func (p Phase) Apply(base signal.Params) signal.Params {
	out := base
	if p.Rhythm != nil {
		out.Rhythm = signal.ParseRhythm(*p.Rhythm)
	}
	if p.HeartRate != nil {
		out.HeartRate = *p.HeartRate
	}
	if p.Lead != nil {
		out.Lead = signal.ParseLead(*p.Lead)
	}
	if p.PRInterval != nil {
		out.PRInterval = *p.PRInterval
	}
	if p.QRSWidth != nil {
		out.QRSWidth = *p.QRSWidth
	}
	if p.QTInterval != nil {
		out.QTInterval = *p.QTInterval
	}
	if p.AmplitudeGain != nil {
		out.AmplitudeGain = *p.AmplitudeGain
	}
	if p.AddNoise != nil {
		out.AddNoise = *p.AddNoise
	}
	if p.STElevation != nil {
		out.STElevation = *p.STElevation
	}
	return out
}

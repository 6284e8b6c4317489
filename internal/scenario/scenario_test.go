package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apachedragonfly/ekg-wave/internal/signal"
)

const deterioration = `
name: deterioration
description: sinus, then afib, then vtach
phases:
  - name: sinus
    duration: 30s
    rhythm: normal
    heart_rate: 72
  - name: afib
    duration: 20s
    rhythm: afib
    heart_rate: 110
    add_noise: true
  - name: vtach
    duration: 10s
    rhythm: vtach
    heart_rate: 170
    lead: V1
`

func TestParseAndIndex(t *testing.T) {
	s, err := Parse([]byte(deterioration))
	if err != nil {
		t.Fatal(err)
	}
	if s.Total() != time.Minute {
		t.Fatalf("total = %v", s.Total())
	}
	tests := []struct {
		elapsed time.Duration
		index   int
	}{
		{0, 0},
		{29 * time.Second, 0},
		{30 * time.Second, 1},
		{55 * time.Second, 2},
		{90 * time.Second, -1},
	}
	for _, tt := range tests {
		if got := s.Index(tt.elapsed); got != tt.index {
			t.Fatalf("Index(%v) = %d, want %d", tt.elapsed, got, tt.index)
		}
	}
}

func TestLoopWraps(t *testing.T) {
	s, err := Parse([]byte("loop: true\n" + deterioration))
	if err != nil {
		t.Fatal(err)
	}
	if i := s.Index(65 * time.Second); i != 0 {
		t.Fatalf("expected wrap to first phase, got %d", i)
	}
	if i := s.Index(95 * time.Second); i != 1 {
		t.Fatalf("expected afib on second pass, got %d", i)
	}
}

func TestUnlimitedLastPhase(t *testing.T) {
	s, err := Parse([]byte(`
phases:
  - name: warmup
    duration: 5s
  - name: steady
    duration: unlimited
`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Total() != 0 {
		t.Fatalf("total = %v", s.Total())
	}
	if i := s.Index(time.Hour); i != 1 {
		t.Fatalf("got phase %d, want the unlimited one", i)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("name: empty\n")); !errors.Is(err, ErrNoPhases) {
		t.Fatalf("expected ErrNoPhases, got %v", err)
	}
	_, err := Parse([]byte("phases:\n  - name: a\n    duration: soon\n"))
	if !errors.Is(err, ErrBadDuration) {
		t.Fatalf("expected ErrBadDuration, got %v", err)
	}
	_, err = Parse([]byte("phases:\n  - name: a\n  - name: b\n    duration: 5s\n"))
	if !errors.Is(err, ErrBadDuration) {
		t.Fatalf("unlimited phase before the last must fail, got %v", err)
	}
	if _, err := Parse([]byte("phases: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestApplyKeepsUnsetFields(t *testing.T) {
	s, err := Parse([]byte(deterioration))
	if err != nil {
		t.Fatal(err)
	}
	base := signal.DefaultParams()
	base.AmplitudeGain = 1.5

	vt := s.Phases[2].Apply(base)
	if vt.Rhythm != signal.VentricularTachycardia || vt.HeartRate != 170 || vt.Lead != signal.LeadV1 {
		t.Fatalf("overrides not applied: %+v", vt)
	}
	if vt.AmplitudeGain != 1.5 || vt.PRInterval != base.PRInterval {
		t.Fatalf("unset fields must come from base: %+v", vt)
	}
	if !s.Phases[1].Apply(base).AddNoise {
		t.Fatal("add_noise override lost")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte(deterioration), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "deterioration" || len(s.Phases) != 3 {
		t.Fatalf("unexpected scenario %+v", s)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

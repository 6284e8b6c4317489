package signal

import (
	"sync"
	"time"
)

// Streamer genera un trazado sin fin a SampleRate Hz para el productor.
// SetParams cambia la morfología en caliente sin reiniciar el tiempo.
type Streamer struct {
	mu    sync.Mutex
	synth *Synthesizer
	opts  []Option
	i     int // índice dentro de synth
	n     int // muestras emitidas
}

func NewStreamer(p Params, opts ...Option) (*Streamer, error) {
	s, err := NewSynthesizer(p, opts...)
	if err != nil {
		return nil, err
	}
	return &Streamer{synth: s, opts: opts}, nil
}

// Fill completa buf con las próximas muestras y devuelve la cantidad escrita.
func (s *Streamer) Fill(buf []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for j := range buf {
		buf[j] = float32(s.synth.At(s.i).Voltage)
		s.i++
	}
	s.n += len(buf)
	return len(buf)
}

// SetParams reemplaza el sintetizador conservando el número de ciclo y la
// fase dentro del latido, así un cambio de frecuencia no corta el QRS.
func (s *Streamer) SetParams(p Params) error {
	synth, err := NewSynthesizer(p, s.opts...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.i = rebase(s.i, s.synth.ppc, synth.ppc)
	s.synth = synth
	return nil
}

// rebase lleva el índice i de un latido de from muestras a uno de to.
func rebase(i, from, to int) int {
	cycle, pos := i/from, i%from
	return cycle*to + (pos*to+from/2)/from
}

func (s *Streamer) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synth.Params()
}

// Elapsed es el tiempo de muestreo transcurrido, no el de reloj.
func (s *Streamer) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.n) * time.Second / SampleRate
}

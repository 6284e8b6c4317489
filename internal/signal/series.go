package signal

// Series es una secuencia de muestras a SampleRate con tiempo creciente desde 0.
type Series []Sample

// Float32 devuelve los voltajes en el formato de los frames de onda.
func (s Series) Float32() []float32 {
	out := make([]float32, len(s))
	for i, x := range s {
		out[i] = float32(x.Voltage)
	}
	return out
}

// Duration en segundos.
func (s Series) Duration() float64 {
	return float64(len(s)) / SampleRate
}

// Max devuelve el índice de la muestra de mayor voltaje (-1 si está vacía).
func (s Series) Max() int { return s.extreme(func(a, b float64) bool { return a > b }) }

// Min devuelve el índice de la muestra de menor voltaje (-1 si está vacía).
func (s Series) Min() int { return s.extreme(func(a, b float64) bool { return a < b }) }

func (s Series) extreme(better func(a, b float64) bool) int {
	best := -1
	for i, x := range s {
		if best < 0 || better(x.Voltage, s[best].Voltage) {
			best = i
		}
	}
	return best
}

// Slice devuelve las muestras con tiempo en [from, to).
func (s Series) Slice(from, to float64) Series {
	lo, hi := len(s), len(s)
	for i, x := range s {
		if x.Time >= from && lo == len(s) {
			lo = i
		}
		if x.Time >= to {
			hi = i
			break
		}
	}
	if lo > hi {
		lo = hi
	}
	return s[lo:hi]
}

package signal

import "math"

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

// skewedGauss es una gaussiana en [0,1) con el pico en peak: el flanco
// izquierdo usa sigma width*peak y el derecho width*(1-peak), así sube
// rápido y baja lento como una onda T.
func skewedGauss(x, peak, width float64) float64 {
	sigma := width * peak
	if x > peak {
		sigma = width * (1 - peak)
	}
	return gauss(x, peak, sigma)
}

// halfSine es medio período de seno en [0,1).
func halfSine(x float64) float64 {
	return math.Sin(math.Pi * x)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func fract(x float64) float64 { return x - math.Floor(x) }

// window devuelve la posición normalizada de x dentro de [start, start+width).
func window(x, start, width float64) (float64, bool) {
	if width <= 0 || x < start || x >= start+width {
		return 0, false
	}
	return (x - start) / width, true
}

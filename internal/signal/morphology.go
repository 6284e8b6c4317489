package signal

import "math"

// Constantes de tiempo y forma compartidas por los tres generadores. Las
// posiciones están en unidades de fase (0..1 dentro del latido).
const (
	pStart = 0.04

	// QRS angosto: Q hasta qrsQEnd, R hasta qrsREnd, S hasta qrsSEnd, retorno.
	qrsQEnd     = 0.2
	qrsREnd     = 0.4
	qrsSEnd     = 0.7
	qDepth      = 0.2
	rExponent   = 0.8
	sOvershoot  = 0.3
	returnTaper = 0.5

	minSTSegment = 0.05

	// T: gaussiana asimétrica con pico al 40% de la ventana
	tPeak  = 0.4
	tWidth = 0.3

	afibQRSStart = 0.2

	vtachQRSStart        = 0.1
	vtachMinWidth        = 0.12
	vtachRiseEnd         = 0.4
	vtachPlateauEnd      = 0.7
	vtachGain            = 1.2
	vtachRiseExp         = 1.5
	vtachPlateauEndLevel = 0.8
	vtachNotch           = 0.1
	vtachNotchFreq       = 20
	vtachSTOffset        = -0.1
)

// generator devuelve el voltaje (antes de derivación/ganancia) en una fase
// del latido. cycle sólo importa para la FA.
type generator interface {
	voltage(phase float64, cycle int) float64
}

func newGenerator(p Params, prof Profile) generator {
	switch p.Rhythm {
	case AtrialFibrillation:
		return fibrillation{
			prof: prof,
			beat: newBeat(afibQRSStart, p.QRSWidth, p.QTInterval, prof.T.Duration),
			st:   p.STElevation,
		}
	case VentricularTachycardia:
		w := EffectiveQRSWidth(p)
		return tachycardia{
			prof: prof,
			beat: newBeat(vtachQRSStart, w, p.QTInterval, prof.T.Duration),
		}
	default:
		return sinus{
			prof: prof,
			beat: newBeat(p.PRInterval, p.QRSWidth, p.QTInterval, prof.T.Duration),
			st:   p.STElevation,
		}
	}
}

// EffectiveQRSWidth es el ancho de QRS que usa el generador: en TV nunca
// baja de 120 ms.
func EffectiveQRSWidth(p Params) float64 {
	if p.Rhythm == VentricularTachycardia {
		return math.Max(vtachMinWidth, p.QRSWidth)
	}
	return p.QRSWidth
}

// beat ubica QRS, ST y T dentro del latido. El ST se despeja de
// QT = QRS + ST + T con un mínimo de minSTSegment.
type beat struct {
	qrsStart, qrsWidth float64
	tStart, tDuration  float64
}

func newBeat(qrsStart, qrsWidth, qt, tDuration float64) beat {
	st := math.Max(minSTSegment, qt-qrsWidth-tDuration)
	return beat{
		qrsStart:  qrsStart,
		qrsWidth:  qrsWidth,
		tStart:    qrsStart + qrsWidth + st,
		tDuration: tDuration,
	}
}

func (b beat) qrsEnd() float64 { return b.qrsStart + b.qrsWidth }

// ventricular dibuja QRS angosto, ST (con elevación opcional) y T.
func (b beat) ventricular(phase float64, prof Profile, st float64) float64 {
	if x, ok := window(phase, b.qrsStart, b.qrsWidth); ok {
		return narrowQRS(x, prof.QRS.Amplitude)
	}
	if phase >= b.qrsEnd() && phase < b.tStart {
		return st
	}
	if x, ok := window(phase, b.tStart, b.tDuration); ok {
		v := st * (1 - x)
		if prof.T.Present {
			v += prof.T.Amplitude * skewedGauss(x, tPeak, tWidth)
		}
		return v
	}
	return 0
}

func narrowQRS(x, amp float64) float64 {
	switch {
	case x < qrsQEnd:
		return -qDepth * amp * (x / qrsQEnd)
	case x < qrsREnd:
		r := (x - qrsQEnd) / (qrsREnd - qrsQEnd)
		return lerp(-qDepth*amp, amp, math.Pow(r, rExponent))
	case x < qrsSEnd:
		s := (x - qrsREnd) / (qrsSEnd - qrsREnd)
		return lerp(amp, -sOvershoot*amp, s)
	default:
		s := (x - qrsSEnd) / (1 - qrsSEnd)
		return -sOvershoot * amp * (1 - s) * (1 - returnTaper*s)
	}
}

type sinus struct {
	prof Profile
	beat beat
	st   float64
}

func (g sinus) voltage(phase float64, _ int) float64 {
	if g.prof.P.Present {
		if x, ok := window(phase, pStart, g.prof.P.Duration); ok && phase < g.beat.qrsStart {
			return g.prof.P.Amplitude * halfSine(x)
		}
	}
	return g.beat.ventricular(phase, g.prof, g.st)
}

type fibrillation struct {
	prof Profile
	beat beat
	st   float64
}

func (g fibrillation) voltage(phase float64, cycle int) float64 {
	f := fibrillatoryWaves(float64(cycle) + phase)
	pos := fract(phase * rrScale(cycle, g.prof.RateVariability))
	return f + g.beat.ventricular(pos, g.prof, g.st)
}

// fibrillatoryWaves reemplaza la línea de base en FA. x es la fase
// acumulada (ciclo + fase) para que las ondas f no salten entre latidos.
func fibrillatoryWaves(x float64) float64 {
	return 0.03*math.Sin(120*x) +
		0.02*math.Sin(137*x+0.7) +
		0.025*math.Sin(146*x+1.9)
}

// rrScale es el factor RR del latido cycle: determinístico por índice,
// con frecuencias inconmensurables para que no se repita.
func rrScale(cycle int, variability float64) float64 {
	c := float64(cycle)
	j := math.Sin(c*0.31) * math.Cos(c*0.77) * math.Sin(c*1.23)
	return 1 + variability*j
}

type tachycardia struct {
	prof Profile
	beat beat
}

func (g tachycardia) voltage(phase float64, _ int) float64 {
	b := g.beat
	if x, ok := window(phase, b.qrsStart, b.qrsWidth); ok {
		return wideQRS(x, g.prof.QRS.Amplitude)
	}
	if phase >= b.qrsEnd() && phase < b.tStart {
		return vtachSTOffset
	}
	if x, ok := window(phase, b.tStart, b.tDuration); ok {
		// T discordante: signo opuesto al del perfil
		return vtachSTOffset*(1-x) - g.prof.T.Amplitude*skewedGauss(x, tPeak, tWidth)
	}
	return 0
}

func wideQRS(x, amp float64) float64 {
	switch {
	case x < vtachRiseEnd:
		return vtachGain * amp * math.Pow(x/vtachRiseEnd, vtachRiseExp)
	case x < vtachPlateauEnd:
		s := (x - vtachRiseEnd) / (vtachPlateauEnd - vtachRiseEnd)
		return amp*lerp(vtachGain, vtachPlateauEndLevel, s) + amp*vtachNotch*math.Sin(x*vtachNotchFreq)
	default:
		s := (x - vtachPlateauEnd) / (1 - vtachPlateauEnd)
		return lerp(vtachPlateauEndLevel*amp, vtachSTOffset, s)
	}
}

package signal

// Morphology distingue un QRS angosto de uno ancho (>=120 ms).
type Morphology int

const (
	MorphologyNormal Morphology = iota
	MorphologyWide
)

func (m Morphology) String() string {
	if m == MorphologyWide {
		return "wide"
	}
	return "normal"
}

func (m Morphology) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Morphology) UnmarshalText(b []byte) error {
	*m = MorphologyNormal
	if string(b) == "wide" {
		*m = MorphologyWide
	}
	return nil
}

// Wave describe una onda P o T.
type Wave struct {
	Amplitude float64 `json:"amplitude"`
	Duration  float64 `json:"duration"`
	Present   bool    `json:"present"`
}

// Complex describe el QRS.
type Complex struct {
	Amplitude  float64    `json:"amplitude"`
	Duration   float64    `json:"duration"`
	Morphology Morphology `json:"morphology"`
}

// Profile es la morfología de un latido para un ritmo y una derivación.
// Se arma en cada llamada y no se modifica después.
type Profile struct {
	P               Wave    `json:"pWave"`
	QRS             Complex `json:"qrsComplex"`
	T               Wave    `json:"tWave"`
	BaselineNoise   float64 `json:"baselineNoise"`
	RateVariability float64 `json:"rateVariability"`
}

// base agrupa las constantes de amplitud/duración de cada ritmo.
type base struct {
	p, qrs, t   Wave
	morphology  Morphology
	noise       float64
	variability float64
}

var bases = map[Rhythm]base{
	Normal: {
		p:           Wave{Amplitude: 0.2, Duration: 0.08, Present: true},
		qrs:         Wave{Amplitude: 1.0, Duration: 0.08},
		t:           Wave{Amplitude: 0.3, Duration: 0.16, Present: true},
		morphology:  MorphologyNormal,
		noise:       0.02,
		variability: 0.05,
	},
	AtrialFibrillation: {
		qrs:         Wave{Amplitude: 1.0, Duration: 0.08},
		t:           Wave{Amplitude: 0.3, Duration: 0.16, Present: true},
		morphology:  MorphologyNormal,
		noise:       0.05,
		variability: 0.4,
	},
	VentricularTachycardia: {
		qrs:         Wave{Amplitude: 1.8, Duration: 0.16},
		t:           Wave{Amplitude: 0.5, Duration: 0.12, Present: true},
		morphology:  MorphologyWide,
		noise:       0.03,
		variability: 0.1,
	},
}

// leadGain multiplica P, QRS y T por derivación. aVR invierte todo;
// en precordiales el QRS crece hasta V4 y vuelve a bajar.
type leadGain struct{ p, qrs, t float64 }

var leadGains = [...]leadGain{
	LeadI:   {0.8, 0.7, 0.8},
	LeadII:  {1.0, 1.1, 1.0},
	LeadIII: {0.6, 0.5, 0.5},
	LeadAVR: {-0.9, -0.9, -0.8},
	LeadAVL: {0.5, 0.4, 0.4},
	LeadAVF: {0.8, 0.8, 0.7},
	LeadV1:  {0.6, 0.5, 0.4},
	LeadV2:  {0.6, 0.8, 0.8},
	LeadV3:  {0.7, 1.1, 1.0},
	LeadV4:  {0.8, 1.4, 1.1},
	LeadV5:  {0.8, 1.2, 1.0},
	LeadV6:  {0.8, 1.0, 0.9},
}

const (
	afibNoiseV1 = 0.07

	vtachQRSRightPrecordial = 2.0
	vtachQRSV6              = 1.6

	// la P termina al menos pqGap antes del QRS
	pqGap        = 0.02
	minPDuration = 0.04
)

// ProfileFor devuelve la morfología para el ritmo y la derivación. pr sólo
// se usa en ritmo normal para acotar la duración de la P. No hay errores:
// un ritmo desconocido usa la tabla normal y una derivación desconocida la de II.
func ProfileFor(r Rhythm, l Lead, pr float64) Profile {
	if !l.valid() {
		l = LeadII
	}
	b, ok := bases[r]
	if !ok {
		r, b = Normal, bases[Normal]
	}
	g := leadGains[l]

	prof := Profile{
		QRS: Complex{
			Amplitude:  b.qrs.Amplitude * g.qrs,
			Duration:   b.qrs.Duration,
			Morphology: b.morphology,
		},
		T: Wave{
			Amplitude: b.t.Amplitude * g.t,
			Duration:  b.t.Duration,
			Present:   b.t.Present,
		},
		BaselineNoise:   b.noise,
		RateVariability: b.variability,
	}

	switch r {
	case AtrialFibrillation:
		if l == LeadV1 {
			prof.BaselineNoise = afibNoiseV1
		}
	case VentricularTachycardia:
		// en TV la derivación sólo aporta el signo, salvo V1/V2/V6
		amp := b.qrs.Amplitude
		switch l {
		case LeadV1, LeadV2:
			amp = vtachQRSRightPrecordial
		case LeadV6:
			amp = vtachQRSV6
		}
		prof.QRS.Amplitude = sign(g.qrs) * amp
		prof.T.Amplitude = sign(g.t) * b.t.Amplitude
	default:
		prof.P = Wave{
			Amplitude: b.p.Amplitude * g.p,
			Duration:  pDuration(b.p.Duration, pr),
			Present:   true,
		}
	}
	return prof
}

func pDuration(limit, pr float64) float64 {
	d := pr - pStart - pqGap
	if d > limit {
		d = limit
	}
	if d < minPDuration {
		d = minPDuration
	}
	return d
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

package signal

import "strings"

// Rhythm es el ritmo cardíaco a simular.
type Rhythm int

const (
	Normal Rhythm = iota
	AtrialFibrillation
	VentricularTachycardia
)

var rhythmNames = [...]string{
	Normal:                 "normal",
	AtrialFibrillation:     "afib",
	VentricularTachycardia: "vtach",
}

// Rhythms devuelve los ritmos soportados en orden de presentación.
func Rhythms() []Rhythm {
	return []Rhythm{Normal, AtrialFibrillation, VentricularTachycardia}
}

func (r Rhythm) String() string {
	if r < 0 || int(r) >= len(rhythmNames) {
		return rhythmNames[Normal]
	}
	return rhythmNames[r]
}

// ParseRhythm nunca falla: lo desconocido es ritmo sinusal normal.
func ParseRhythm(s string) Rhythm {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "afib", "af", "atrial_fibrillation", "atrialfibrillation", "atrial-fibrillation":
		return AtrialFibrillation
	case "vtach", "vt", "ventricular_tachycardia", "ventriculartachycardia", "ventricular-tachycardia":
		return VentricularTachycardia
	default:
		return Normal
	}
}

func (r Rhythm) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rhythm) UnmarshalText(b []byte) error {
	*r = ParseRhythm(string(b))
	return nil
}

// Lead es una de las 12 derivaciones estándar.
type Lead int

const (
	LeadI Lead = iota
	LeadII
	LeadIII
	LeadAVR
	LeadAVL
	LeadAVF
	LeadV1
	LeadV2
	LeadV3
	LeadV4
	LeadV5
	LeadV6
)

var leadNames = [...]string{
	LeadI:   "I",
	LeadII:  "II",
	LeadIII: "III",
	LeadAVR: "aVR",
	LeadAVL: "aVL",
	LeadAVF: "aVF",
	LeadV1:  "V1",
	LeadV2:  "V2",
	LeadV3:  "V3",
	LeadV4:  "V4",
	LeadV5:  "V5",
	LeadV6:  "V6",
}

// Leads devuelve las derivaciones en el orden clásico del trazado de 12 derivaciones.
func Leads() []Lead {
	out := make([]Lead, len(leadNames))
	for i := range out {
		out[i] = Lead(i)
	}
	return out
}

func (l Lead) valid() bool { return l >= 0 && int(l) < len(leadNames) }

func (l Lead) String() string {
	if !l.valid() {
		return leadNames[LeadII]
	}
	return leadNames[l]
}

// ParseLead no distingue mayúsculas; lo desconocido cae en II.
func ParseLead(s string) Lead {
	s = strings.TrimSpace(s)
	for i, name := range leadNames {
		if strings.EqualFold(name, s) {
			return Lead(i)
		}
	}
	return LeadII
}

func (l Lead) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Lead) UnmarshalText(b []byte) error {
	*l = ParseLead(string(b))
	return nil
}

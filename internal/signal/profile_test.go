package signal

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalProfileLeadII(t *testing.T) {
	p := ProfileFor(Normal, LeadII, 0.16)
	if p.P.Amplitude != 0.2 || !p.P.Present || p.P.Duration != 0.08 {
		t.Fatalf("unexpected P wave %+v", p.P)
	}
	if math.Abs(p.QRS.Amplitude-1.1) > 1e-12 || p.QRS.Duration != 0.08 || p.QRS.Morphology != MorphologyNormal {
		t.Fatalf("unexpected QRS %+v", p.QRS)
	}
	if p.T.Amplitude != 0.3 || p.T.Duration != 0.16 {
		t.Fatalf("unexpected T wave %+v", p.T)
	}
	if p.BaselineNoise != 0.02 || p.RateVariability != 0.05 {
		t.Fatalf("unexpected noise/variability %v/%v", p.BaselineNoise, p.RateVariability)
	}
}

func TestAVRInvertsAllWaves(t *testing.T) {
	p := ProfileFor(Normal, LeadAVR, 0.16)
	if p.P.Amplitude >= 0 || p.QRS.Amplitude >= 0 || p.T.Amplitude >= 0 {
		t.Fatalf("aVR should invert P, QRS and T: %+v", p)
	}
}

func TestPrecordialProgressionPeaksAtV4(t *testing.T) {
	precordial := []Lead{LeadV1, LeadV2, LeadV3, LeadV4, LeadV5, LeadV6}
	var amps []float64
	for _, l := range precordial {
		amps = append(amps, ProfileFor(Normal, l, 0.16).QRS.Amplitude)
	}
	for i := 1; i <= 3; i++ {
		if amps[i] <= amps[i-1] {
			t.Fatalf("QRS should rise V1..V4: %v", amps)
		}
	}
	for i := 4; i < len(amps); i++ {
		if amps[i] >= amps[i-1] {
			t.Fatalf("QRS should fall V4..V6: %v", amps)
		}
	}
}

func TestAFibProfileHasNoPWave(t *testing.T) {
	for _, l := range Leads() {
		p := ProfileFor(AtrialFibrillation, l, 0.16)
		if p.P.Present || p.P.Amplitude != 0 || p.P.Duration != 0 {
			t.Fatalf("%s: AFib must have no P wave, got %+v", l, p.P)
		}
		want := 0.05
		if l == LeadV1 {
			want = 0.07
		}
		if p.BaselineNoise != want {
			t.Fatalf("%s: baseline noise %v, want %v", l, p.BaselineNoise, want)
		}
		if p.RateVariability != 0.4 {
			t.Fatalf("%s: rate variability %v, want 0.4", l, p.RateVariability)
		}
	}
}

func TestVTachProfile(t *testing.T) {
	tests := []struct {
		lead Lead
		qrs  float64
	}{
		{LeadII, 1.8},
		{LeadV1, 2.0},
		{LeadV2, 2.0},
		{LeadV6, 1.6},
		{LeadAVR, -1.8},
	}
	for _, tc := range tests {
		t.Run(tc.lead.String(), func(t *testing.T) {
			p := ProfileFor(VentricularTachycardia, tc.lead, 0.16)
			if p.P.Present || p.P.Amplitude != 0 {
				t.Fatalf("VT must have no P wave")
			}
			if p.QRS.Amplitude != tc.qrs {
				t.Fatalf("QRS amplitude %v, want %v", p.QRS.Amplitude, tc.qrs)
			}
			if p.QRS.Duration != 0.16 || p.QRS.Morphology != MorphologyWide {
				t.Fatalf("unexpected QRS %+v", p.QRS)
			}
			if math.Abs(p.T.Amplitude) != 0.5 || p.T.Duration != 0.12 {
				t.Fatalf("unexpected T %+v", p.T)
			}
			if p.BaselineNoise != 0.03 || p.RateVariability != 0.1 {
				t.Fatalf("unexpected noise/variability %+v", p)
			}
		})
	}
}

func TestProfileFallbacks(t *testing.T) {
	want := ProfileFor(Normal, LeadII, 0.16)
	if got := ProfileFor(Rhythm(42), LeadII, 0.16); got != want {
		t.Fatalf("unknown rhythm: got %+v, want %+v", got, want)
	}
	if got := ProfileFor(Normal, Lead(99), 0.16); got != want {
		t.Fatalf("unknown lead: got %+v, want %+v", got, want)
	}
}

func TestParseRhythmAndLead(t *testing.T) {
	rhythms := map[string]Rhythm{
		"normal": Normal, "NSR": Normal, "afib": AtrialFibrillation,
		"Atrial_Fibrillation": AtrialFibrillation, "vt": VentricularTachycardia,
		"vtach": VentricularTachycardia, "torsades": Normal,
	}
	for in, want := range rhythms {
		if got := ParseRhythm(in); got != want {
			t.Fatalf("ParseRhythm(%q) = %v, want %v", in, got, want)
		}
	}
	leads := map[string]Lead{"ii": LeadII, "AVR": LeadAVR, "v4": LeadV4, "aVL": LeadAVL, "V7": LeadII}
	for in, want := range leads {
		if got := ParseLead(in); got != want {
			t.Fatalf("ParseLead(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParamsJSONUsesNames(t *testing.T) {
	p := DefaultParams()
	p.Rhythm = VentricularTachycardia
	p.Lead = LeadAVF
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back Params
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Fatalf("round trip mismatch: %s -> %+v", b, back)
	}
}

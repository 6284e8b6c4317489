package stream

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/apachedragonfly/ekg-wave/internal/signal"
)

// ErrShortFrame: un frame de onda son float32 little-endian, 4 bytes cada uno.
var ErrShortFrame = errors.New("wave frame length is not a multiple of 4")

func EncodeFrame(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func DecodeFrame(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// ParamMsg viaja como JSON en el subject de parámetros. El productor lo
// publica al cambiar la configuración y el procesador con cada HR detectada.
type ParamMsg struct {
	Subject string         `json:"subject"`
	Ts      int64          `json:"ts"`
	RunID   string         `json:"runId,omitempty"`
	Source  string         `json:"source"`
	HR      int            `json:"hr"`
	Rhythm  string         `json:"rhythm,omitempty"`
	Lead    string         `json:"lead,omitempty"`
	Params  *signal.Params `json:"params,omitempty"`
}

// NewRunID identifica una corrida del productor.
func NewRunID() string { return uuid.NewString() }

func ParamsMessage(subject, runID string, p signal.Params) ParamMsg {
	return ParamMsg{
		Subject: subject,
		Ts:      time.Now().UnixMilli(),
		RunID:   runID,
		Source:  "producer",
		HR:      int(math.Round(p.HeartRate)),
		Rhythm:  p.Rhythm.String(),
		Lead:    p.Lead.String(),
		Params:  &p,
	}
}

func DetectedMessage(subject, runID string, bpm int) ParamMsg {
	return ParamMsg{
		Subject: subject,
		Ts:      time.Now().UnixMilli(),
		RunID:   runID,
		Source:  "processor",
		HR:      bpm,
	}
}

func (m ParamMsg) Marshal() ([]byte, error) { return json.Marshal(m) }

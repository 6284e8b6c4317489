// Package config lee la configuración de los comandos: un archivo .properties
// (key=value) con overrides por variables de entorno.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/apachedragonfly/ekg-wave/internal/signal"
	"github.com/apachedragonfly/ekg-wave/internal/stream"
)

// EnvPath es la variable con la ruta del .properties cuando no hay -config.
const EnvPath = "EKG_PROPERTIES"

type Config struct {
	Synth signal.Params

	Batch         int
	Sink          string
	NATSURL       string
	KafkaBrokers  []string
	MQTTBroker    string
	WaveSubject   string
	ParamsSubject string
	ListenAddr    string
	WebDir        string
	Scenario      string
}

func Default() Config {
	return Config{
		Synth:         signal.DefaultParams(),
		Batch:         10,
		Sink:          "nats",
		NATSURL:       "nats://127.0.0.1:4222",
		KafkaBrokers:  []string{"kafka:9092"},
		MQTTBroker:    "tcp://127.0.0.1:1883",
		WaveSubject:   stream.DefaultWaveSubject,
		ParamsSubject: stream.DefaultParamsSubject,
		ListenAddr:    ":8080",
		WebDir:        "./web",
	}
}

// Path resuelve la ruta del archivo: el flag si vino, si no EKG_PROPERTIES.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvPath)
}

// Load parte de Default, aplica el archivo (si path no es vacío) y después el
// entorno. Valores inválidos se ignoran con un warning.
func Load(path string, log *slog.Logger) (Config, error) {
	cfg := Default()
	if path != "" {
		props, err := LoadProps(path)
		if err != nil {
			return Config{}, err
		}
		cfg = apply(cfg, props, log)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func LoadProps(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load properties file: %w", err)
	}
	return ParseProps(string(b)), nil
}

func ParseProps(s string) map[string]string {
	m := map[string]string{}
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "//") {
			continue
		}
		kv := strings.SplitN(ln, "=", 2)
		if len(kv) != 2 {
			continue
		}
		m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return m
}

func apply(cfg Config, m map[string]string, log *slog.Logger) Config {
	p := &cfg.Synth
	if v, ok := m["rhythm"]; ok {
		p.Rhythm = signal.ParseRhythm(v)
	}
	if v, ok := m["lead"]; ok {
		p.Lead = signal.ParseLead(v)
	}
	p.HeartRate = getf(m, "heart_rate", p.HeartRate, log)
	p.PRInterval = getf(m, "pr_interval", p.PRInterval, log)
	p.QRSWidth = getf(m, "qrs_width", p.QRSWidth, log)
	p.QTInterval = getf(m, "qt_interval", p.QTInterval, log)
	p.AmplitudeGain = getf(m, "amplitude_gain", p.AmplitudeGain, log)
	p.STElevation = getf(m, "st_elevation", p.STElevation, log)
	p.AddNoise = getb(m, "add_noise", p.AddNoise, log)
	if p.HeartRate < signal.SaneMinHeartRate || p.HeartRate > signal.SaneMaxHeartRate {
		log.Warn("heart_rate out of range, using default", "val", p.HeartRate)
		p.HeartRate = signal.DefaultParams().HeartRate
	}

	cfg.Batch = geti(m, "batch", cfg.Batch, log)
	cfg.Sink = gets(m, "sink", cfg.Sink)
	cfg.NATSURL = gets(m, "nats_url", cfg.NATSURL)
	if v := gets(m, "kafka_brokers", ""); v != "" {
		cfg.KafkaBrokers = splitCSV(v)
	}
	cfg.MQTTBroker = gets(m, "mqtt_broker", cfg.MQTTBroker)
	cfg.WaveSubject = gets(m, "wave_subject", cfg.WaveSubject)
	cfg.ParamsSubject = gets(m, "params_subject", cfg.ParamsSubject)
	cfg.ListenAddr = gets(m, "listen_addr", cfg.ListenAddr)
	cfg.WebDir = gets(m, "web_dir", cfg.WebDir)
	cfg.Scenario = gets(m, "scenario", cfg.Scenario)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitCSV(v)
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.MQTTBroker = v
	}
	if v := os.Getenv("EKG_SINK"); v != "" {
		cfg.Sink = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}

func gets(m map[string]string, key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

func getf(m map[string]string, key string, def float64, log *slog.Logger) float64 {
	if v, ok := m[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		log.Warn("invalid float in properties, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func geti(m map[string]string, key string, def int, log *slog.Logger) int {
	if v, ok := m[key]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warn("invalid integer in properties, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func getb(m map[string]string, key string, def bool, log *slog.Logger) bool {
	if v, ok := m[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn("invalid bool in properties, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/apachedragonfly/ekg-wave/internal/logging"
	"github.com/apachedragonfly/ekg-wave/internal/signal"
)

func writeProps(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "ekg.properties")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseProps(t *testing.T) {
	m := ParseProps("# comment\n// other\n rhythm = afib \nbroken line\nurl=nats://a:1?x=y\n")
	want := map[string]string{"rhythm": "afib", "url": "nats://a:1?x=y"}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("got %v, want %v", m, want)
	}
}

func TestLoadAppliesProperties(t *testing.T) {
	path := writeProps(t, t.TempDir(), `
rhythm=vtach
heart_rate=150
lead=v1
qrs_width=0.1
add_noise=true
st_elevation=0.15
batch=25
sink=kafka
kafka_brokers=k1:9092, k2:9092
scenario=scenarios/demo.yaml
`)
	cfg, err := Load(path, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Synth
	if p.Rhythm != signal.VentricularTachycardia || p.HeartRate != 150 || p.Lead != signal.LeadV1 {
		t.Fatalf("unexpected params %+v", p)
	}
	if p.QRSWidth != 0.1 || !p.AddNoise || p.STElevation != 0.15 {
		t.Fatalf("unexpected params %+v", p)
	}
	if p.PRInterval != 0.16 || p.QTInterval != 0.36 {
		t.Fatalf("unset keys must keep defaults: %+v", p)
	}
	if cfg.Batch != 25 || cfg.Sink != "kafka" || cfg.Scenario != "scenarios/demo.yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadInvalidValuesKeepDefaults(t *testing.T) {
	path := writeProps(t, t.TempDir(), "heart_rate=fast\nbatch=-3\nadd_noise=maybe\nqt_interval=0.4\nst_elevation=Inf\n")
	cfg, err := Load(path, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Synth.HeartRate != def.Synth.HeartRate || cfg.Batch != def.Batch || cfg.Synth.AddNoise || cfg.Synth.STElevation != 0 {
		t.Fatalf("invalid values must fall back: %+v", cfg)
	}
	if cfg.Synth.QTInterval != 0.4 {
		t.Fatalf("valid keys must still apply, got %v", cfg.Synth.QTInterval)
	}
}

func TestLoadHeartRateOutOfRange(t *testing.T) {
	for _, v := range []string{"0", "5", "1000", "NaN"} {
		path := writeProps(t, t.TempDir(), "heart_rate="+v+"\n")
		cfg, err := Load(path, logging.Discard())
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Synth.HeartRate != signal.DefaultParams().HeartRate {
			t.Fatalf("heart_rate=%s: got %v", v, cfg.Synth.HeartRate)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.properties"), logging.Discard()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeProps(t, t.TempDir(), "nats_url=nats://file:4222\nsink=nats\n")
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("EKG_SINK", "mqtt")
	cfg, err := Load(path, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NATSURL != "nats://env:4222" || cfg.Sink != "mqtt" {
		t.Fatalf("env must win: %+v", cfg)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "/etc/ekg.properties")
	if got := Path("local.properties"); got != "local.properties" {
		t.Fatalf("flag must win, got %q", got)
	}
	if got := Path(""); got != "/etc/ekg.properties" {
		t.Fatalf("got %q", got)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeProps(t, dir, "heart_rate=60\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Config, 4)
	if err := Watch(ctx, path, logging.Discard(), func(c Config) { got <- c }); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("heart_rate=110\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Synth.HeartRate == 110 {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

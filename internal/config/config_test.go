package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/next-trace/scg-rideshare/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Service != config.ServiceAll || cfg.Transport != config.TransportMemory || cfg.Store != config.StoreMemory {
		t.Fatalf("defaults: %+v", cfg)
	}

	if cfg.HTTP.Addr != ":8080" || len(cfg.Kafka.Brokers) != 1 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RIDESHARE_SERVICE", "booking")
	t.Setenv("RIDESHARE_TRANSPORT", "kafka")
	t.Setenv("RIDESHARE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RIDESHARE_LOG_LEVEL", "debug")

	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Service != "booking" || cfg.Transport != "kafka" || cfg.Log.Level != "debug" {
		t.Fatalf("env: %+v", cfg)
	}

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", cfg.Kafka.Brokers)
	}

	if !cfg.Runs(config.ServiceBooking) || cfg.Runs(config.ServiceIdentity) {
		t.Fatalf("runs mismatch")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rideshare.yaml")

	body := "service: inventory\ntransport: nats\nstore: durable\nhttp:\n  addr: \":9090\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Service != "inventory" || cfg.Store != "durable" || cfg.HTTP.Addr != ":9090" {
		t.Fatalf("file: %+v", cfg)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("RIDESHARE_SERVICE", "booking")
	t.Setenv("RIDESHARE_TRANSPORT", "nats")
	t.Setenv("RIDESHARE_LOG_FORMAT", "text")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.Flags(fs)

	if err := fs.Parse([]string{"--service=inventory", "--http.addr=:7070", "--log.format=json"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := config.Load("", fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Service != "inventory" || cfg.HTTP.Addr != ":7070" || cfg.Transport != "nats" || cfg.Log.Format != "json" {
		t.Fatalf("flags: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RIDESHARE_SERVICE", "identity")

	if _, err := config.Load("", nil); err == nil {
		t.Fatalf("memory transport with a single service must be rejected")
	}

	t.Setenv("RIDESHARE_TRANSPORT", "carrier-pigeon")

	if _, err := config.Load("", nil); err == nil {
		t.Fatalf("unknown transport must be rejected")
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("missing file must be rejected")
	}
}

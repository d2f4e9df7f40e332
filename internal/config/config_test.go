package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDispatcherDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/posnotif")
	t.Setenv("AWS_REGION", "ap-southeast-3")
	t.Setenv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/entries")

	cfg := LoadDispatcher()
	if cfg.DB.DSN != "postgres://localhost/posnotif" || cfg.DB.MaxConns != 10 {
		t.Fatalf("unexpected db config: %#v", cfg.DB)
	}
	if cfg.WhatsApp.BaseURL != "https://app.whacenter.com/api" || cfg.WhatsApp.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected gateway config: %#v", cfg.WhatsApp)
	}
	if cfg.SweepGrace != time.Minute || cfg.WorkerConcurrency != 20 {
		t.Fatalf("unexpected worker config: %#v", cfg)
	}
}

func TestLoadSchedulerOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/posnotif")
	t.Setenv("AWS_REGION", "ap-southeast-3")
	t.Setenv("SQS_QUEUE_URL", "q")
	t.Setenv("SUMMARY_SCHEDULE", "30 7 * * *")

	cfg := LoadScheduler()
	if cfg.Schedule != "30 7 * * *" || cfg.Timezone != "Asia/Jakarta" {
		t.Fatalf("unexpected scheduler config: %#v", cfg)
	}
}

func TestLoadPanicsWithoutDSN(t *testing.T) {
	t.Setenv("DB_DSN", "restored-after-test")
	os.Unsetenv("DB_DSN")
	t.Setenv("AWS_REGION", "x")
	t.Setenv("SQS_QUEUE_URL", "q")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on missing DB_DSN")
		}
	}()
	LoadAPI()
}

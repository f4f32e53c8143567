package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssblocks/config"
)

func TestEnvFromContext(t *testing.T) {
	t.Run("valid context", func(t *testing.T) {
		env := EnvFromContext(ContextWithEnv(context.Background()))
		if env == nil {
			t.Fatal("EnvFromContext() returned nil")
		}
		if env.start.IsZero() {
			t.Error("environment start time not set")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic when env not in context")
			}
		}()
		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		env := &LocalEnv{Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))}
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Error("expected restoreStdLog to be set")
		}
		env.RestoreStdLog()
	})

	t.Run("without logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("expected restoreStdLog to remain nil")
		}
		env.RestoreStdLog()
	})
}

func TestLocalEnv_Cache(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	env := &LocalEnv{Cfg: cfg, Log: zap.NewNop()}

	if err := env.OpenCache(); err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	if env.Cache != nil {
		t.Fatal("cache opened while disabled")
	}

	cfg.Cache.Enable = true
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
	if err := env.OpenCache(); err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	if env.Cache == nil {
		t.Fatal("cache not opened")
	}
	if err := env.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if env.Cache != nil {
		t.Error("cache not released on Close()")
	}
	// second close is a no-op
	if err := env.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

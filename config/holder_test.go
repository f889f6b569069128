package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tokenmeter/tokenmeter/config"
)

func newTestHolder(t *testing.T) (*config.Holder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	t.Cleanup(h.Stop)
	return h, path
}

func TestHolder_GetDefaults(t *testing.T) {
	h, _ := newTestHolder(t)
	if got := h.Get().Budget.DailyLimitUSD; got != 10 {
		t.Errorf("DailyLimitUSD = %v, want default 10", got)
	}
}

func TestHolder_UpdatePersistsAndNotifies(t *testing.T) {
	h, path := newTestHolder(t)

	var notified *config.Config
	h.OnChange(func(c *config.Config) { notified = c })

	cfg := *h.Get()
	cfg.Budget.DailyLimitUSD = 55
	if err := h.Update(&cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := h.Get().Budget.DailyLimitUSD; got != 55 {
		t.Errorf("DailyLimitUSD = %v, want 55", got)
	}
	if notified == nil || notified.Budget.DailyLimitUSD != 55 {
		t.Error("listener not notified with updated config")
	}

	// Written back to disk.
	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if reloaded.Budget.DailyLimitUSD != 55 {
		t.Errorf("persisted DailyLimitUSD = %v, want 55", reloaded.Budget.DailyLimitUSD)
	}
}

func TestHolder_UpdateRejectsInvalid(t *testing.T) {
	h, _ := newTestHolder(t)

	cfg := *h.Get()
	cfg.Budget.DailyLimitUSD = -1
	if err := h.Update(&cfg); err == nil {
		t.Fatal("expected validation error")
	}
	if got := h.Get().Budget.DailyLimitUSD; got != 10 {
		t.Errorf("running config changed after failed update: %v", got)
	}
}

func TestHolder_Reload(t *testing.T) {
	h, path := newTestHolder(t)

	cfg := *h.Get()
	cfg.Budget.DailyLimitUSD = 33
	if err := config.Save(path, &cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := h.Get().Budget.DailyLimitUSD; got != 33 {
		t.Errorf("DailyLimitUSD = %v, want 33 after reload", got)
	}
}

func TestHolder_ReloadFailureNotifiesAndKeepsConfig(t *testing.T) {
	h, path := newTestHolder(t)

	var failures int
	h.OnError(func(error) { failures++ })

	if err := os.WriteFile(path, []byte("budget: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write broken config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error for broken config")
	}
	if failures != 1 {
		t.Errorf("error listener fired %d times, want 1", failures)
	}
	if got := h.Get().Budget.DailyLimitUSD; got != 10 {
		t.Errorf("running config changed after failed reload: %v", got)
	}
}

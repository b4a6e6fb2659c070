package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TargetIndex != -1 {
		t.Fatalf("TargetIndex = %d, want -1 (no preference)", cfg.TargetIndex)
	}
	if cfg.RingSecondsPCM != 1.0 || cfg.RingSecondsDSD != 0.8 {
		t.Fatalf("ring sizing defaults = %v/%v, want 1.0/0.8", cfg.RingSecondsPCM, cfg.RingSecondsDSD)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RENDERER_PORT", "9090")
	t.Setenv("RENDERER_TARGET_INDEX", "2")
	t.Setenv("RENDERER_MONITOR_ENABLED", "true")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.TargetIndex != 2 {
		t.Fatalf("TargetIndex = %d, want 2", cfg.TargetIndex)
	}
	if !cfg.MonitorEnabled {
		t.Fatalf("MonitorEnabled = false, want true")
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("RENDERER_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want fallback 8080 on unparsable env", cfg.Port)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Days != 30 {
		t.Errorf("days = %d, want 30", cfg.Simulation.Days)
	}
	if cfg.Agent.MaxEnergy != 100000 {
		t.Errorf("max_energy = %v, want 100000", cfg.Agent.MaxEnergy)
	}
	if cfg.Environment.TidePeriodHours != 12.4 {
		t.Errorf("tide_period_hours = %v, want 12.4", cfg.Environment.TidePeriodHours)
	}
	if cfg.Derived.TotalTicks != 30*24 {
		t.Errorf("total ticks = %d, want %d", cfg.Derived.TotalTicks, 30*24)
	}
	if cfg.Derived.StartTime.Year() != 2021 {
		t.Errorf("start year = %d, want 2021", cfg.Derived.StartTime.Year())
	}
}

func TestLoadOverlayKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	overlay := "simulation:\n  days: 7\nagent:\n  stomach_capacity: 20\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Days != 7 {
		t.Errorf("days = %d, want 7", cfg.Simulation.Days)
	}
	if cfg.Agent.StomachCapacity != 20 {
		t.Errorf("stomach_capacity = %v, want 20", cfg.Agent.StomachCapacity)
	}
	// Untouched fields keep embedded defaults.
	if cfg.Agent.MaxEnergy != 100000 {
		t.Errorf("max_energy = %v, want 100000", cfg.Agent.MaxEnergy)
	}
}

func TestBridgesCarryThresholds(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ep := cfg.EnvParams()
	if ep.HighTideThreshold != 0.7 || ep.LowTideThreshold != 0.3 {
		t.Errorf("tide thresholds = %v/%v", ep.HighTideThreshold, ep.LowTideThreshold)
	}

	nc := cfg.NavConfig()
	if nc.SpeedDeg != 0.05 || nc.DeepPanicDepthM != 1000 {
		t.Errorf("nav config = %+v", nc)
	}

	ap := cfg.AgentParams()
	if ap.StarvationFrac != 0.10 {
		t.Errorf("starvation_frac = %v", ap.StarvationFrac)
	}
	if ap.Move.CandidateCount != 10 {
		t.Errorf("move.candidate_count = %d", ap.Move.CandidateCount)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Agent.MaxEnergy != cfg.Agent.MaxEnergy {
		t.Errorf("max_energy changed across round trip")
	}
}

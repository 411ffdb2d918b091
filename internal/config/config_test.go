package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BoardRoot != ".swarm/board" {
		t.Errorf("Default BoardRoot = %q, want %q", cfg.BoardRoot, ".swarm/board")
	}
	if cfg.ReclaimTimeout != 5*time.Minute {
		t.Errorf("Default ReclaimTimeout = %v, want 5m", cfg.ReclaimTimeout)
	}
	if cfg.Bus.HistorySize != 100 {
		t.Errorf("Default Bus.HistorySize = %d, want 100", cfg.Bus.HistorySize)
	}
	if cfg.Consensus.Threshold != 0.6 {
		t.Errorf("Default Consensus.Threshold = %v, want 0.6", cfg.Consensus.Threshold)
	}
	if cfg.Bridge.Throttle != 100*time.Millisecond {
		t.Errorf("Default Bridge.Throttle = %v, want 100ms", cfg.Bridge.Throttle)
	}
	if cfg.Bridge.BufferSize != 10 {
		t.Errorf("Default Bridge.BufferSize = %d, want 10", cfg.Bridge.BufferSize)
	}
	if cfg.HUD.MaxEvents != 100 {
		t.Errorf("Default HUD.MaxEvents = %d, want 100", cfg.HUD.MaxEvents)
	}
}

func TestMerge(t *testing.T) {
	dst := Default()
	src := &Config{
		BoardRoot:        "/custom/board",
		ConsensusLogPath: "/custom/consensus.jsonl",
	}

	result := merge(dst, src)

	if result.BoardRoot != "/custom/board" {
		t.Errorf("merge BoardRoot = %q, want %q", result.BoardRoot, "/custom/board")
	}
	if result.ConsensusLogPath != "/custom/consensus.jsonl" {
		t.Errorf("merge ConsensusLogPath = %q, want %q", result.ConsensusLogPath, "/custom/consensus.jsonl")
	}
	// Defaults should be preserved when not overridden.
	if result.Bus.HistorySize != 100 {
		t.Errorf("merge preserved Bus.HistorySize = %d, want 100", result.Bus.HistorySize)
	}
}

func TestMerge_NestedPreservedWhenZero(t *testing.T) {
	dst := Default()
	src := &Config{BoardRoot: "/custom/board"}

	result := merge(dst, src)

	if result.Consensus.Threshold != 0.6 {
		t.Errorf("merge should preserve default Consensus.Threshold, got %v", result.Consensus.Threshold)
	}
	if result.HUD.RippleRate != defaultHUDRippleRate {
		t.Errorf("merge should preserve default HUD.RippleRate, got %v", result.HUD.RippleRate)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SWARM_BOARD_ROOT", "/env/board")
	t.Setenv("SWARM_RECLAIM_TIMEOUT", "10m")
	t.Setenv("SWARM_BUS_HISTORY_SIZE", "250")
	t.Setenv("SWARM_CONSENSUS_THRESHOLD", "0.75")
	t.Setenv("SWARM_BRIDGE_THROTTLE", "250ms")
	t.Setenv("SWARM_BRIDGE_BUFFER_SIZE", "20")

	cfg := applyEnv(Default())

	if cfg.BoardRoot != "/env/board" {
		t.Errorf("applyEnv BoardRoot = %q, want %q", cfg.BoardRoot, "/env/board")
	}
	if cfg.ReclaimTimeout != 10*time.Minute {
		t.Errorf("applyEnv ReclaimTimeout = %v, want 10m", cfg.ReclaimTimeout)
	}
	if cfg.Bus.HistorySize != 250 {
		t.Errorf("applyEnv Bus.HistorySize = %d, want 250", cfg.Bus.HistorySize)
	}
	if cfg.Consensus.Threshold != 0.75 {
		t.Errorf("applyEnv Consensus.Threshold = %v, want 0.75", cfg.Consensus.Threshold)
	}
	if cfg.Bridge.Throttle != 250*time.Millisecond {
		t.Errorf("applyEnv Bridge.Throttle = %v, want 250ms", cfg.Bridge.Throttle)
	}
	if cfg.Bridge.BufferSize != 20 {
		t.Errorf("applyEnv Bridge.BufferSize = %d, want 20", cfg.Bridge.BufferSize)
	}
}

func TestApplyEnv_IgnoresUnparseableValues(t *testing.T) {
	t.Setenv("SWARM_RECLAIM_TIMEOUT", "not-a-duration")
	t.Setenv("SWARM_BUS_HISTORY_SIZE", "not-a-number")

	cfg := applyEnv(Default())

	if cfg.ReclaimTimeout != defaultReclaimTimeout {
		t.Errorf("applyEnv should ignore unparseable duration, got %v", cfg.ReclaimTimeout)
	}
	if cfg.Bus.HistorySize != defaultBusHistory {
		t.Errorf("applyEnv should ignore unparseable int, got %d", cfg.Bus.HistorySize)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
board_root: /custom/board
consensus:
  threshold: 0.8
bridge:
  buffer_size: 25
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}
	if cfg.BoardRoot != "/custom/board" {
		t.Errorf("loadFromPath BoardRoot = %q, want %q", cfg.BoardRoot, "/custom/board")
	}
	if cfg.Consensus.Threshold != 0.8 {
		t.Errorf("loadFromPath Consensus.Threshold = %v, want 0.8", cfg.Consensus.Threshold)
	}
	if cfg.Bridge.BufferSize != 25 {
		t.Errorf("loadFromPath Bridge.BufferSize = %d, want 25", cfg.Bridge.BufferSize)
	}
}

func TestLoadFromPath_NotExists(t *testing.T) {
	cfg, err := loadFromPath("/nonexistent/config.yaml")
	if cfg != nil {
		t.Errorf("loadFromPath for nonexistent file should return nil config")
	}
	if err == nil {
		t.Errorf("loadFromPath for nonexistent file should return error")
	}
}

func TestLoadFromPath_Empty(t *testing.T) {
	cfg, err := loadFromPath("")
	if cfg != nil || err != nil {
		t.Errorf("loadFromPath(\"\") = %v, %v; want nil, nil", cfg, err)
	}
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`{{{invalid yaml`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(configPath)
	if err == nil {
		t.Error("loadFromPath for invalid YAML should return error")
	}
	if cfg != nil {
		t.Error("loadFromPath for invalid YAML should return nil config")
	}
}

func TestProjectConfigPath_UsesSwarmConfigEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	t.Setenv("SWARM_CONFIG", configPath)

	if got := projectConfigPath(); got != configPath {
		t.Fatalf("projectConfigPath() = %q, want %q", got, configPath)
	}
}

func TestProjectConfigPath_WalksUpToFindMarker(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "")
	root := t.TempDir()
	marker := filepath.Join(root, ".swarm.yaml")
	if err := os.WriteFile(marker, []byte("board_root: /root/board\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(oldWD) }()
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	got := projectConfigPath()
	if got != marker {
		t.Fatalf("projectConfigPath() = %q, want %q", got, marker)
	}
}

func TestProjectConfigPath_NoMarkerReturnsEmpty(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "")
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(oldWD) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	if got := projectConfigPath(); got != "" {
		t.Fatalf("projectConfigPath() = %q, want empty (no .swarm.yaml up the tree)", got)
	}
}

func TestLoad_WithFlagOverrides(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "")
	t.Setenv("SWARM_BOARD_ROOT", "")

	overrides := &Config{BoardRoot: "/flag/board"}

	cfg, err := Load(overrides)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BoardRoot != "/flag/board" {
		t.Errorf("Load BoardRoot = %q, want %q", cfg.BoardRoot, "/flag/board")
	}
}

func TestLoad_NilOverridesGivesDefaults(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "")
	t.Setenv("SWARM_BOARD_ROOT", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BoardRoot != defaultBoardRoot {
		t.Errorf("Load nil BoardRoot = %q, want %q", cfg.BoardRoot, defaultBoardRoot)
	}
}

func TestLoad_ProjectConfigThenEnvThenFlagPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
board_root: /project/board
consensus:
  threshold: 0.7
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SWARM_CONFIG", configPath)
	t.Setenv("SWARM_CONSENSUS_THRESHOLD", "0.9")

	cfg, err := Load(&Config{BoardRoot: "/flag/board"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BoardRoot != "/flag/board" {
		t.Errorf("flag should win over project config: BoardRoot = %q", cfg.BoardRoot)
	}
	if cfg.Consensus.Threshold != 0.9 {
		t.Errorf("env should win over project config: Consensus.Threshold = %v", cfg.Consensus.Threshold)
	}
}

func BenchmarkDefault(b *testing.B) {
	for range b.N {
		Default()
	}
}

func BenchmarkMerge(b *testing.B) {
	base := Default()
	overlay := &Config{BoardRoot: "/tmp/bench", Consensus: ConsensusConfig{Threshold: 0.9}}
	b.ResetTimer()
	for range b.N {
		dst := *base
		merge(&dst, overlay)
	}
}

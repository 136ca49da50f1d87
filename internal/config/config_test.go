package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testProgramID = "So11111111111111111111111111111111111111112"
	testTreasury  = "4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA"
)

// setTestAddresses supplies the on-chain identities every valid
// configuration must carry.
func setTestAddresses(t *testing.T) {
	t.Helper()
	t.Setenv("VAULT_PROGRAM_ID", testProgramID)
	t.Setenv("VAULT_TREASURY", testTreasury)
}

func TestLoad_Defaults(t *testing.T) {
	setTestAddresses(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Staking.PenaltyWindow.Std() != 24*time.Hour {
		t.Fatalf("penalty window = %s", cfg.Staking.PenaltyWindow.Std())
	}
	if cfg.Staking.LockWindow.Std() != 720*time.Hour {
		t.Fatalf("lock window = %s", cfg.Staking.LockWindow.Std())
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("driver = %s, want memory", cfg.Storage.Driver)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	content := `
server:
  port: 9090
rpc:
  endpoint: http://localhost:8899
program:
  id: So11111111111111111111111111111111111111112
  treasury: 4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA
staking:
  penalty_window: 30s
  lock_window: 60s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.RPC.Endpoint != "http://localhost:8899" {
		t.Fatalf("endpoint = %s", cfg.RPC.Endpoint)
	}
	if cfg.Staking.PenaltyWindow.Std() != 30*time.Second {
		t.Fatalf("penalty window = %s, want 30s", cfg.Staking.PenaltyWindow.Std())
	}
	// Untouched fields keep their defaults.
	if cfg.Staking.PenaltyRateBps != 1000 {
		t.Fatalf("penalty rate = %d, want 1000", cfg.Staking.PenaltyRateBps)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setTestAddresses(t)
	t.Setenv("VAULT_RPC_ENDPOINT", "http://node:8899")
	t.Setenv("VAULT_SERVER_PORT", "7000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPC.Endpoint != "http://node:8899" {
		t.Fatalf("endpoint = %s", cfg.RPC.Endpoint)
	}
	if cfg.Server.Port != 7000 {
		t.Fatalf("port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Program.ID != testProgramID {
		t.Fatalf("program id = %s", cfg.Program.ID)
	}
}

func TestLoad_RejectsMissingProgram(t *testing.T) {
	t.Setenv("VAULT_PROGRAM_ID", "")
	t.Setenv("VAULT_TREASURY", testTreasury)

	if _, err := Load(""); err == nil {
		t.Fatal("accepted configuration without a program id")
	}
}

func TestLoad_RejectsMalformedTreasury(t *testing.T) {
	t.Setenv("VAULT_PROGRAM_ID", testProgramID)
	t.Setenv("VAULT_TREASURY", "not-base58-0OIl")

	if _, err := Load(""); err == nil {
		t.Fatal("accepted a treasury address that does not parse")
	}
}

func TestLoad_RejectsInvertedWindows(t *testing.T) {
	setTestAddresses(t)
	path := filepath.Join(t.TempDir(), "vault.yaml")
	content := `
staking:
  penalty_window: 60s
  lock_window: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("accepted penalty window >= lock window")
	}
}

func TestLoad_RejectsPostgresWithoutDSN(t *testing.T) {
	setTestAddresses(t)
	path := filepath.Join(t.TempDir(), "vault.yaml")
	content := `
storage:
  driver: postgres
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("accepted postgres storage without dsn")
	}
}

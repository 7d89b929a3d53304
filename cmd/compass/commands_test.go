package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/models"
)

// writeTestConfig drops a sqlite-backed config into a temp dir and returns
// its path plus the database path it points at.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "compass.db")
	cfgPath := filepath.Join(dir, "compass.yaml")
	raw := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\nauth:\n  jwt_secret: test-secret\n", dbPath)
	if err := os.WriteFile(cfgPath, []byte(raw), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, dbPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestMigrateCmd(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)

	out, err := runCommand(t, "migrate", "-c", cfgPath)
	if err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Migrated") {
		t.Errorf("output: %s", out)
	}

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: dbPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, model := range db.AllModels() {
		if !conn.Migrator().HasTable(model) {
			t.Errorf("missing table for %T", model)
		}
	}
}

func TestSeedCmdIdempotent(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)

	if out, err := runCommand(t, "seed", "-c", cfgPath); err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}
	if out, err := runCommand(t, "seed", "-c", cfgPath); err != nil {
		t.Fatalf("second seed: %v\n%s", err, out)
	}

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: dbPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var users, projects, tasks int64
	conn.Model(&models.User{}).Count(&users)
	conn.Model(&models.Project{}).Count(&projects)
	conn.Model(&models.Task{}).Count(&tasks)
	if users != 2 {
		t.Errorf("users: got %d, want 2", users)
	}
	if projects != 2 {
		t.Errorf("projects: got %d, want 2", projects)
	}
	if tasks != 8 {
		t.Errorf("tasks: got %d, want 8", tasks)
	}
}

func TestUserCreateAndList(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	if out, err := runCommand(t, "migrate", "-c", cfgPath); err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}

	out, err := runCommand(t, "user", "create", "PM@Compass.dev",
		"-c", cfgPath, "--password", "hunter2hunter2", "--role", "admin", "--name", "Project Manager")
	if err != nil {
		t.Fatalf("user create: %v\n%s", err, out)
	}
	if !strings.Contains(out, "pm@compass.dev") {
		t.Errorf("email not normalized: %s", out)
	}

	// Duplicate email is rejected.
	if _, err := runCommand(t, "user", "create", "pm@compass.dev", "-c", cfgPath, "--password", "hunter2hunter2"); err == nil {
		t.Fatal("expected duplicate create to fail")
	}

	// Short passwords are rejected.
	if _, err := runCommand(t, "user", "create", "short@compass.dev", "-c", cfgPath, "--password", "short"); err == nil {
		t.Fatal("expected short password to fail")
	}

	// Bad role is rejected.
	if _, err := runCommand(t, "user", "create", "x@compass.dev", "-c", cfgPath, "--password", "hunter2hunter2", "--role", "owner"); err == nil {
		t.Fatal("expected bad role to fail")
	}

	out, err = runCommand(t, "user", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if !strings.Contains(out, "pm@compass.dev") || !strings.Contains(out, "admin") {
		t.Errorf("list output: %s", out)
	}
}

func TestDoctorCmdWithFreshDatabase(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	// Schema not migrated yet: doctor warns but does not fail.
	out, err := runCommand(t, "doctor", "-c", cfgPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[PASS] Config file") {
		t.Errorf("output: %s", out)
	}
	if !strings.Contains(out, "[PASS] Database") {
		t.Errorf("output: %s", out)
	}
	if !strings.Contains(out, "compass migrate") {
		t.Errorf("expected schema warning: %s", out)
	}
	if !strings.Contains(out, "[WARN] Advisor") {
		t.Errorf("expected advisor warning without api_key: %s", out)
	}

	if out, err := runCommand(t, "migrate", "-c", cfgPath); err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}
	out, err = runCommand(t, "doctor", "-c", cfgPath)
	if err != nil {
		t.Fatalf("doctor after migrate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[PASS] Schema") {
		t.Errorf("output: %s", out)
	}
}

func TestDoctorCmdMissingConfig(t *testing.T) {
	if _, err := runCommand(t, "doctor", "-c", "/nonexistent/compass.yaml"); err == nil {
		t.Fatal("expected doctor to fail without a config file")
	}
}

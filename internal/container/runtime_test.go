// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/docextract/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "postgres:16",
			cmds:  map[string]bool{"docker image inspect postgres:16": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "postgres:16",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "postgres:16",
			cmds:  map[string]bool{"podman image exists postgres:16": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "postgres:16",
			cmds:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			rt := tt.mkRT(exec)
			err := rt.ImageExists(tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnsureImage(t *testing.T) {
	tests := []struct {
		name      string
		cmds      map[string]bool
		wantCalls []string
		wantOut   string
		wantErr   bool
	}{
		{
			name:      "present locally",
			cmds:      map[string]bool{"docker image inspect postgres:16": true},
			wantCalls: []string{"docker image inspect postgres:16"},
		},
		{
			name:      "missing image is pulled",
			cmds:      map[string]bool{"docker pull postgres:16": true},
			wantCalls: []string{"docker image inspect postgres:16", "docker pull postgres:16"},
			wantOut:   "Pulling postgres:16 with docker\n",
		},
		{
			name:      "pull failure",
			cmds:      map[string]bool{},
			wantCalls: []string{"docker image inspect postgres:16", "docker pull postgres:16"},
			wantOut:   "Pulling postgres:16 with docker\n",
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			var out bytes.Buffer
			err := EnsureImage(newDockerRuntime(exec), "postgres:16", &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "postgres:16") {
					t.Errorf("error should mention image name, got: %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(exec.calls, "|") != strings.Join(tt.wantCalls, "|") {
				t.Errorf("got calls %q, want %q", exec.calls, tt.wantCalls)
			}
			if out.String() != tt.wantOut {
				t.Errorf("got output %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestStart(t *testing.T) {
	db := Database{
		Name:     "docextract-postgres",
		Image:    "postgres:16",
		Env:      map[string]string{"POSTGRES_USER": "u", "POSTGRES_DB": "d"},
		HostPort: 15432,
		Port:     5432,
	}
	want := "docker run -d --rm --name docextract-postgres -e POSTGRES_DB=d -e POSTGRES_USER=u -p 15432:5432 postgres:16"

	exec := &mockExecutor{runnableCmds: map[string]bool{want: true}}
	if err := newDockerRuntime(exec).Start(db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0] != want {
		t.Errorf("got calls %q, want %q", exec.calls, want)
	}

	exec = &mockExecutor{}
	err := newPodmanRuntime(exec).Start(db)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "docextract-postgres") {
		t.Errorf("error should mention container name, got: %v", err)
	}
}

func TestStartDefaultsHostPort(t *testing.T) {
	args := runArgs(Database{Name: "n", Image: "i", Port: 3306})
	got := strings.Join(args, " ")
	if got != "run -d --rm --name n -p 3306:3306 i" {
		t.Errorf("got args %q", got)
	}
}

func TestStop(t *testing.T) {
	exec := &mockExecutor{runnableCmds: map[string]bool{"podman rm -f docextract-mysql": true}}
	if err := newPodmanRuntime(exec).Stop("docextract-mysql"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := newDockerRuntime(&mockExecutor{}).Stop("docextract-mysql"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestForConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.DatabaseConfig
		wantName string
		wantPort int
		wantEnv  map[string]string
		wantErr  bool
	}{
		{
			name:     "postgres",
			cfg:      types.DatabaseConfig{Driver: types.DriverPostgres, User: "u", Password: "p", Name: "docs"},
			wantName: "docextract-postgres",
			wantPort: 5432,
			wantEnv:  map[string]string{"POSTGRES_USER": "u", "POSTGRES_PASSWORD": "p", "POSTGRES_DB": "docs"},
		},
		{
			name:     "mysql root",
			cfg:      types.DatabaseConfig{Driver: types.DriverMySQL, User: "root", Password: "p", Name: "docs"},
			wantName: "docextract-mysql",
			wantPort: 3306,
			wantEnv:  map[string]string{"MYSQL_ROOT_PASSWORD": "p", "MYSQL_DATABASE": "docs"},
		},
		{
			name:     "mysql application user",
			cfg:      types.DatabaseConfig{Driver: types.DriverMySQL, User: "app", Password: "p", Name: "docs"},
			wantName: "docextract-mysql",
			wantPort: 3306,
			wantEnv: map[string]string{
				"MYSQL_RANDOM_ROOT_PASSWORD": "yes",
				"MYSQL_USER":                 "app",
				"MYSQL_PASSWORD":             "p",
				"MYSQL_DATABASE":             "docs",
			},
		},
		{
			name:    "sqlite has no container",
			cfg:     types.DatabaseConfig{Driver: types.DriverSQLite},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := ForConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if db.Name != tt.wantName || db.Port != tt.wantPort {
				t.Errorf("got %s:%d, want %s:%d", db.Name, db.Port, tt.wantName, tt.wantPort)
			}
			if len(db.Env) != len(tt.wantEnv) {
				t.Fatalf("got env %v, want %v", db.Env, tt.wantEnv)
			}
			for k, v := range tt.wantEnv {
				if db.Env[k] != v {
					t.Errorf("env %s = %q, want %q", k, db.Env[k], v)
				}
			}
		})
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	docker := newDockerRuntime(exec)
	if docker.Name() != "docker" {
		t.Errorf("docker runtime name = %q, want %q", docker.Name(), "docker")
	}
	podman := newPodmanRuntime(exec)
	if podman.Name() != "podman" {
		t.Errorf("podman runtime name = %q, want %q", podman.Name(), "podman")
	}
}

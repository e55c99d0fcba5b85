// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container starts and stops throwaway PostgreSQL and MySQL
// containers for local development and integration tests. Docker is tried
// first, Podman second.
package container

import (
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"

	"github.com/pdiddy/docextract/pkg/types"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Default images for each network backend.
const (
	PostgresImage = "docker.io/library/postgres:16"
	MySQLImage    = "docker.io/library/mysql:8.4"
)

// Database describes a database container to start.
type Database struct {
	Name  string
	Image string
	Env   map[string]string

	// HostPort is published on the host and mapped to Port in the container.
	HostPort int
	Port     int
}

// Runtime provides container operations: checking availability, verifying
// images, and starting or removing database containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Pull fetches the named image from its registry.
	Pull(image string) error

	// Start runs db detached. The container is removed when it stops.
	Start(db Database) error

	// Stop force-removes the named container.
	Stop(name string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Pull(image string) error {
	if err := r.exec.RunSilent(r.bin, "pull", image); err != nil {
		return fmt.Errorf("pulling %s with %s: %w", image, r.bin, err)
	}
	return nil
}

// EnsureImage pulls image when rt does not have it locally. Progress is
// written to out.
func EnsureImage(rt Runtime, image string, out io.Writer) error {
	if err := rt.ImageExists(image); err == nil {
		return nil
	}
	fmt.Fprintf(out, "Pulling %s with %s\n", image, rt.Name())
	return rt.Pull(image)
}

func (r *runtime) Start(db Database) error {
	if err := r.exec.RunSilent(r.bin, runArgs(db)...); err != nil {
		return fmt.Errorf("starting %s container %s: %w", r.bin, db.Name, err)
	}
	return nil
}

func (r *runtime) Stop(name string) error {
	if err := r.exec.RunSilent(r.bin, "rm", "-f", name); err != nil {
		return fmt.Errorf("removing %s container %s: %w", r.bin, name, err)
	}
	return nil
}

// runArgs builds the run command line. Environment variables are sorted so
// the command is deterministic.
func runArgs(db Database) []string {
	args := []string{"run", "-d", "--rm", "--name", db.Name}
	keys := make([]string, 0, len(db.Env))
	for k := range db.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+db.Env[k])
	}
	if db.Port > 0 {
		host := db.HostPort
		if host == 0 {
			host = db.Port
		}
		args = append(args, "-p", strconv.Itoa(host)+":"+strconv.Itoa(db.Port))
	}
	return append(args, db.Image)
}

// ForConfig returns the container that serves cfg. Only the network
// drivers run in a container.
func ForConfig(cfg types.DatabaseConfig) (Database, error) {
	switch cfg.Driver {
	case types.DriverPostgres:
		return Database{
			Name:  "docextract-postgres",
			Image: PostgresImage,
			Env: map[string]string{
				"POSTGRES_USER":     cfg.User,
				"POSTGRES_PASSWORD": cfg.Password,
				"POSTGRES_DB":       cfg.Name,
			},
			HostPort: cfg.Port,
			Port:     5432,
		}, nil
	case types.DriverMySQL:
		env := map[string]string{
			"MYSQL_DATABASE": cfg.Name,
		}
		if cfg.User == "" || cfg.User == "root" {
			env["MYSQL_ROOT_PASSWORD"] = cfg.Password
		} else {
			env["MYSQL_RANDOM_ROOT_PASSWORD"] = "yes"
			env["MYSQL_USER"] = cfg.User
			env["MYSQL_PASSWORD"] = cfg.Password
		}
		return Database{
			Name:     "docextract-mysql",
			Image:    MySQLImage,
			Env:      env,
			HostPort: cfg.Port,
			Port:     3306,
		}, nil
	default:
		return Database{}, fmt.Errorf("driver %q does not run in a container", cfg.Driver)
	}
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

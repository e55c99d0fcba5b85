//go:build mage

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pdiddy/docextract/internal/container"
	"github.com/pdiddy/docextract/pkg/types"
)

// databaseConfig reads the connection settings the CLI would use from
// DB_USER, DB_PASSWORD, DB_DATABASE, and DB_PORT.
func databaseConfig(driver string) types.DatabaseConfig {
	cfg := types.DatabaseConfig{
		Driver:   driver,
		User:     envOr("DB_USER", "docextract"),
		Password: envOr("DB_PASSWORD", "docextract"),
		Name:     envOr("DB_DATABASE", "documents"),
	}
	if p, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		cfg.Port = p
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DBUp starts a postgres or mysql container matching the DB_* variables.
func DBUp(driver string) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	db, err := container.ForConfig(databaseConfig(driver))
	if err != nil {
		return err
	}
	if err := container.EnsureImage(rt, db.Image, os.Stdout); err != nil {
		return err
	}
	if err := rt.Start(db); err != nil {
		return err
	}
	port := db.HostPort
	if port == 0 {
		port = db.Port
	}
	fmt.Printf("Started %s (%s) on port %d via %s\n", db.Name, db.Image, port, rt.Name())
	fmt.Printf("Use DOCEXTRACT_DATABASE_DRIVER=%s once the server accepts connections\n", driver)
	return nil
}

// DBDown removes the container started by DBUp.
func DBDown(driver string) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	db, err := container.ForConfig(databaseConfig(driver))
	if err != nil {
		return err
	}
	if err := rt.Stop(db.Name); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", db.Name)
	return nil
}

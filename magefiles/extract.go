//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract builds the CLI and runs it on one file from Documents/.
func Extract(filename string) error {
	mg.Deps(Init, Build)
	fmt.Printf("[extract] %s\n", filename)
	return sh.RunV("./bin/docextract", "extract", filename)
}

// Migrate builds the CLI and applies database migrations.
func Migrate() error {
	mg.Deps(Build)
	return sh.RunV("./bin/docextract", "migrate")
}

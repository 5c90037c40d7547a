//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	propertyPkg    = "./internal/linkfield/..."
	propertyRun    = "Property$"
	propertyChecks = 1000
	coverProfile   = "coverage.out"
)

// Test groups test targets (all, race, property, cover).
type Test mg.Namespace

// All runs every package's tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Race runs every package's tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Property runs the codec property tests with more rapid checks.
func (Test) Property() error {
	return sh.RunV(binGo, "test", "-v", "-run", propertyRun, propertyPkg,
		fmt.Sprintf("-rapid.checks=%d", propertyChecks))
}

// Cover writes a coverage profile to bin/ and prints the per-function
// summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, coverProfile)
	if err := sh.RunV(binGo, "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+profile)
}

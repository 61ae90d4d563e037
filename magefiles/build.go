// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for accountdesk using Mage.
//
// Usage:
//
//	mage build          Compile the accountdesk binary to bin/
//	mage test:all       Run every test
//	mage test:unit      Run package tests only
//	mage test:integration Build, then run the binary-level tests
//	mage test:race      Run every test with the race detector
//	mage test:cover     Write coverage to bin/coverage.out
//	mage lint           Run go vet and golangci-lint
//	mage serve          Build, then serve the local store on :8080
//	mage clean          Remove build artifacts
//	mage install        Install accountdesk to GOPATH/bin
//	mage stats          Print Go LOC per layer
//	mage statsJSON      Print Go LOC per layer as JSON
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "accountdesk"
	binaryDir  = "bin"
	cmdDir     = "./cmd/accountdesk"
	modulePath = "github.com/mesh-intelligence/accountdesk"
)

// ldflags stamps the commit into the version package when git is available.
func ldflags() string {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil || commit == "" {
		return ""
	}
	return "-X " + modulePath + "/pkg/accountdesk.Commit=" + commit
}

// Build compiles the accountdesk binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if flags := ldflags(); flags != "" {
		args = append(args, "-ldflags", flags)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Serve builds the binary and serves the local store on 127.0.0.1:8080.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "serve", "--addr", "127.0.0.1:8080")
}

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
)

// layer groups packages by their role in accountdesk.
type layer struct {
	name     string
	prefixes []string
}

var layers = []layer{
	{"core", []string{"pkg/types", "internal/listing"}},
	{"backends", []string{"internal/sqlite", "internal/remote", "pkg/sqlite"}},
	{"surfaces", []string{"internal/cli", "internal/tui", "internal/server", "cmd"}},
	{"support", []string{"internal/logging", "internal/navigate", "internal/paths", "internal/watch", "pkg/accountdesk"}},
	{"integration", []string{"tests"}},
}

// layerStats is the line count of one layer.
type layerStats struct {
	Layer    string `json:"layer"`
	Packages int    `json:"packages"`
	Prod     int    `json:"go_loc_prod"`
	Test     int    `json:"go_loc_test"`
}

// Stats prints Go lines of code per layer: listing core, backends, user
// surfaces, supporting packages and the integration suite.
func Stats() error {
	stats, err := collectStats()
	if err != nil {
		return err
	}

	t := table.New().Headers("Layer", "Packages", "Prod", "Test")
	var total layerStats
	for _, s := range stats {
		t.Row(s.Layer, strconv.Itoa(s.Packages), strconv.Itoa(s.Prod), strconv.Itoa(s.Test))
		total.Packages += s.Packages
		total.Prod += s.Prod
		total.Test += s.Test
	}
	t.Row("total", strconv.Itoa(total.Packages), strconv.Itoa(total.Prod), strconv.Itoa(total.Test))
	fmt.Println(t.Render())
	return nil
}

// StatsJSON prints the per-layer counts as one JSON line.
func StatsJSON() error {
	stats, err := collectStats()
	if err != nil {
		return err
	}
	line, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func collectStats() ([]layerStats, error) {
	byLayer := make(map[string]*layerStats, len(layers))
	packages := make(map[string]map[string]bool, len(layers))
	for _, l := range layers {
		byLayer[l.name] = &layerStats{Layer: l.name}
		packages[l.name] = make(map[string]bool)
	}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || path == "vendor" || path == ".git" || path == binaryDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		name, ok := layerOf(filepath.ToSlash(path))
		if !ok {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		s := byLayer[name]
		if strings.HasSuffix(path, "_test.go") {
			s.Test += count
		} else {
			s.Prod += count
		}
		packages[name][filepath.Dir(path)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]layerStats, 0, len(layers))
	for _, l := range layers {
		s := byLayer[l.name]
		s.Packages = len(packages[l.name])
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Prod+out[i].Test > out[j].Prod+out[j].Test })
	return out, nil
}

// layerOf returns the layer owning a slash-separated file path. Files
// outside every layer, magefiles included, are not counted.
func layerOf(path string) (string, bool) {
	for _, l := range layers {
		for _, p := range l.prefixes {
			if path == p || strings.HasPrefix(path, p+"/") {
				return l.name, true
			}
		}
	}
	return "", false
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

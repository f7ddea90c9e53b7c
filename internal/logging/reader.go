// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// Entry is one decoded record from the log file.
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"-"`
}

// ReadEntries returns the newest records in path, newest first. level, when
// set, keeps only records of that level. limit <= 0 returns all.
func ReadEntries(path, level string, limit int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	want := strings.ToUpper(strings.TrimSpace(level))
	if want == "WARNING" {
		want = "WARN"
	}

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if want != "" && e.Level != want {
			continue
		}
		var all map[string]interface{}
		if err := json.Unmarshal(line, &all); err == nil {
			for _, k := range []string{"timestamp", "level", "logger", "message", "caller"} {
				delete(all, k)
			}
			e.Fields = all
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

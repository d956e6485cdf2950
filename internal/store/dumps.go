package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StepName identifies a pipeline stage whose output is dumped for debugging.
type StepName string

const (
	StepRaw    StepName = "raw"    // captured payloads as received
	StepTweets StepName = "tweets" // merged and cleaned posts
	StepTop    StepName = "top"    // ranked posts with permalinks
)

// DumpPath returns <dir>/<username>_<step>.json
func DumpPath(dir, username string, step StepName) string {
	name := strings.TrimPrefix(username, "@") + "_" + string(step) + ".json"
	return filepath.Join(dir, name)
}

// SaveDump writes JSON-serializable data for one user and step, replacing
// the previous dump. Returns the path to the saved file.
func SaveDump[T any](dir, username string, step StepName, data T) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	path := DumpPath(dir, username, step)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s dump: %w", step, err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s dump: %w", step, err)
	}

	return path, nil
}

// LoadDump loads JSON data from a specific file path.
func LoadDump[T any](path string) (T, error) {
	var data T

	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read dump: %w", err)
	}

	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal dump: %w", err)
	}

	return data, nil
}

// LoadPayloads reads captured payload files. A file may hold a single
// payload or a raw dump, which is a JSON array of payloads.
func LoadPayloads(paths ...string) ([]json.RawMessage, error) {
	var payloads []json.RawMessage

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}

		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			list, err := LoadDump[[]json.RawMessage](path)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			payloads = append(payloads, list...)
			continue
		}

		if !json.Valid(data) {
			return nil, fmt.Errorf("failed to parse %s: invalid JSON", path)
		}
		payloads = append(payloads, json.RawMessage(data))
	}

	return payloads, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/types"
)

// readState loads a generation saved with --out.
func readState(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if result.Turn == nil {
		return nil, fmt.Errorf("state file %s has no turn", path)
	}
	return &result, nil
}

func writeState(path string, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// selectSuggestions picks suggestions by 1-based position.
func selectSuggestions(suggestions []types.FeedbackItem, positions []int) ([]types.FeedbackItem, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("--select needs at least one suggestion number")
	}
	seen := make(map[int]bool, len(positions))
	out := make([]types.FeedbackItem, 0, len(positions))
	for _, n := range positions {
		if n < 1 || n > len(suggestions) {
			return nil, fmt.Errorf("suggestion %d does not exist (have %d)", n, len(suggestions))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, suggestions[n-1])
	}
	return out, nil
}

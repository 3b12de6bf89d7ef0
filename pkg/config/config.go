// Package config loads optional job configuration for the pipeline commands.
// The file format follows the extension: .toml, .yaml/.yml, or .json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/quantmill/loanpipe/pkg/loan"
)

// Job overrides the defaults both commands run with. Empty fields keep their
// defaults.
type Job struct {
	Columns struct {
		CustomerID    string `json:"customer_id" toml:"customer_id" yaml:"customer_id"`
		AccountID     string `json:"account_id" toml:"account_id" yaml:"account_id"`
		Balance       string `json:"balance" toml:"balance" yaml:"balance"`
		Payments      string `json:"payments" toml:"payments" yaml:"payments"`
		Arrears       string `json:"arrears" toml:"arrears" yaml:"arrears"`
		DateOpen      string `json:"date_open" toml:"date_open" yaml:"date_open"`
		OriginalTerm  string `json:"original_term" toml:"original_term" yaml:"original_term"`
		RemainingTerm string `json:"remaining_term" toml:"remaining_term" yaml:"remaining_term"`
	} `json:"columns" toml:"columns" yaml:"columns"`
	DateLayouts []string `json:"date_layouts" toml:"date_layouts" yaml:"date_layouts"`
	SampleRows  int      `json:"sample_rows" toml:"sample_rows" yaml:"sample_rows"`
	// ChunkRows > 0 makes the converter stream its input through the
	// pipeline in chunks of that many rows.
	ChunkRows int `json:"chunk_rows" toml:"chunk_rows" yaml:"chunk_rows"`
}

// Load reads a job config file. An empty path returns the zero Job.
func Load(path string) (Job, error) {
	var job Job
	if path == "" {
		return job, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return job, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &job)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &job)
	case ".json":
		err = json.Unmarshal(b, &job)
	default:
		return job, fmt.Errorf("config: unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return job, fmt.Errorf("config: %s: %w", path, err)
	}
	return job, nil
}

// ResolveColumns applies the config's column overrides to the canonical
// names.
func (j Job) ResolveColumns() loan.Columns {
	c := loan.DefaultColumns()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.CustomerID, j.Columns.CustomerID)
	override(&c.AccountID, j.Columns.AccountID)
	override(&c.Balance, j.Columns.Balance)
	override(&c.Payments, j.Columns.Payments)
	override(&c.Arrears, j.Columns.Arrears)
	override(&c.DateOpen, j.Columns.DateOpen)
	override(&c.OriginalTerm, j.Columns.OriginalTerm)
	override(&c.RemainingTerm, j.Columns.RemainingTerm)
	return c
}

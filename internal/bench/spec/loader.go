package spec

import (
	"fmt"
	"os"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*BenchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*BenchSpec, error) {
	var s BenchSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse spec YAML: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var validEngineTypes = map[string]bool{
	EngineElasticsearch: true,
	EnginePostgres:      true,
	EngineAPI:           true,
}

var validModes = map[string]bool{
	ModeBench: true,
	ModeEval:  true,
}

// Validate checks references and value ranges and fills defaults in place.
func Validate(s *BenchSpec) error {
	if s.Dataset.Name == "" {
		return apperr.NewFieldValidation("dataset.name", "is required")
	}
	if len(s.Jobs) == 0 {
		return apperr.NewValidation("spec has no jobs")
	}
	if len(s.Engines) == 0 {
		return apperr.NewValidation("spec has no engines")
	}
	for i, j := range s.Jobs {
		if j.Name == "" {
			return apperr.NewFieldValidation(fmt.Sprintf("jobs[%d].name", i), "is required")
		}
		if j.Mode == "" {
			s.Jobs[i].Mode = ModeBench
		} else if !validModes[j.Mode] {
			return apperr.NewFieldValidation(fmt.Sprintf("jobs[%d].mode", i), "invalid mode %q", j.Mode)
		}
		if len(j.Engines) == 0 {
			return apperr.NewValidation(fmt.Sprintf("job %q has no engines", j.Name))
		}
		for _, engRef := range j.Engines {
			if _, ok := s.Engines[engRef]; !ok {
				return apperr.NewValidation(fmt.Sprintf("job %q references unknown engine %q", j.Name, engRef))
			}
		}
	}
	for name, eng := range s.Engines {
		if eng.Type == "" {
			return apperr.NewValidation(fmt.Sprintf("engine %q has no type", name))
		}
		if !validEngineTypes[eng.Type] {
			return apperr.NewValidation(fmt.Sprintf("engine %q has invalid type %q", name, eng.Type))
		}
		if eng.Connection == "" {
			return apperr.NewValidation(fmt.Sprintf("engine %q has no connection", name))
		}
	}

	if err := s.Load.applyDefaults(); err != nil {
		return err
	}
	return s.Eval.applyDefaults()
}

func (c *LoadConfig) applyDefaults() error {
	if len(c.Concurrency) == 0 {
		c.Concurrency = append([]int(nil), DefaultConcurrency...)
	}
	for _, lvl := range c.Concurrency {
		if lvl <= 0 {
			return apperr.NewFieldValidation("load.concurrency", "levels must be positive, got %d", lvl)
		}
	}
	if c.Queries <= 0 {
		c.Queries = DefaultBenchQueries
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Warmup < 0 {
		return apperr.NewFieldValidation("load.warmup", "must not be negative, got %d", c.Warmup)
	}
	if c.MaxQPS < 0 {
		return apperr.NewFieldValidation("load.max_qps", "must not be negative, got %v", c.MaxQPS)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

func (c *EvalConfig) applyDefaults() error {
	if c.Queries <= 0 {
		c.Queries = DefaultEvalQueries
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Workers <= 0 {
		c.Workers = DefaultEvalWorkers
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

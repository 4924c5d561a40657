package spec

import "time"

const (
	ModeBench = "bench"
	ModeEval  = "eval"

	EngineElasticsearch = "elasticsearch"
	EnginePostgres      = "postgres"
	EngineAPI           = "api"
)

var (
	DefaultConcurrency = []int{4, 8, 16}
)

const (
	DefaultBenchQueries  = 10_000
	DefaultEvalQueries   = 100_000
	DefaultLimit         = 10
	DefaultTimeout       = 30 * time.Second
	DefaultEvalWorkers   = 1
	DefaultProgressEvery = 200
)

type BenchSpec struct {
	Dataset DatasetConfig     `yaml:"dataset"`
	Engines map[string]Engine `yaml:"engines"`
	Load    LoadConfig        `yaml:"load"`
	Eval    EvalConfig        `yaml:"eval"`
	Jobs    []Job             `yaml:"jobs"`
}

type DatasetConfig struct {
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`
	Split   string `yaml:"split"`
}

// Job runs one mode against a list of engines over the spec's dataset.
type Job struct {
	Name    string   `yaml:"name"`
	Mode    string   `yaml:"mode"`
	Engines []string `yaml:"engines"`
}

// Engine describes how to reach one search backend. Only the fields relevant
// to Type are read.
type Engine struct {
	Type       string `yaml:"type"`
	Connection string `yaml:"connection"`

	// elasticsearch
	Index    string   `yaml:"index,omitempty"`
	Fields   []string `yaml:"fields,omitempty"`
	IDField  string   `yaml:"id_field,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`

	// postgres
	Table        string `yaml:"table,omitempty"`
	IDColumn     string `yaml:"id_column,omitempty"`
	VectorColumn string `yaml:"vector_column,omitempty"`
	Language     string `yaml:"language,omitempty"`

	// api
	Path string `yaml:"path,omitempty"`
}

type LoadConfig struct {
	Concurrency []int         `yaml:"concurrency"`
	Queries     int           `yaml:"queries"`
	Limit       int           `yaml:"limit"`
	Warmup      int           `yaml:"warmup"`
	MaxQPS      float64       `yaml:"max_qps"`
	Timeout     time.Duration `yaml:"timeout"`
}

type EvalConfig struct {
	Queries       int           `yaml:"queries"`
	Limit         int           `yaml:"limit"`
	Workers       int           `yaml:"workers"`
	ProgressEvery int           `yaml:"progress_every"`
	Timeout       time.Duration `yaml:"timeout"`
}

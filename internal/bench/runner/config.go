package runner

import (
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/telemetry"
)

const DefaultProgressInterval = 10 * time.Second

type Config struct {
	ProgressInterval time.Duration
	Recorder         telemetry.Recorder
}

func DefaultConfig() Config {
	return Config{
		ProgressInterval: DefaultProgressInterval,
		Recorder:         telemetry.Nop,
	}
}

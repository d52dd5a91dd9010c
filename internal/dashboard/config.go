package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/go-sod/sensord/internal/reading/model"
)

type Config struct {
	NodeURL      string        `env:"SENSORD_NODE_URL,default=http://localhost:8001"`
	ServiceURL   string        `env:"SENSORD_SERVICE_URL,default=http://localhost:8000"`
	Interval     time.Duration `env:"SENSORD_DASHBOARD_INTERVAL,default=1s"`
	MaxBackoff   time.Duration `env:"SENSORD_DASHBOARD_MAX_BACKOFF,default=10s"`
	Timeout      time.Duration `env:"SENSORD_CLIENT_TIMEOUT,default=5s"`
	Field        string        `env:"SENSORD_DASHBOARD_FIELD,default=sound_volume"`
	AnomalyLimit int           `env:"SENSORD_DASHBOARD_ANOMALY_LIMIT,default=5"`
}

// Load reads the config through l, e.g. envconfig.OsLookuper().
func Load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return nil, fmt.Errorf("error loading dashboard config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := (model.Reading{}).Field(c.Field); err != nil {
		return fmt.Errorf("dashboard field: %w", err)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("dashboard interval must be positive, got %s", c.Interval)
	}
	if c.MaxBackoff < c.Interval {
		return fmt.Errorf("dashboard max backoff %s is shorter than the interval %s", c.MaxBackoff, c.Interval)
	}
	if c.AnomalyLimit < 0 {
		return fmt.Errorf("dashboard anomaly limit must not be negative, got %d", c.AnomalyLimit)
	}
	return nil
}

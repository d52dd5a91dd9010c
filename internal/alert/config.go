package alert

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-sod/sensord/internal/alert/sink"
)

type Config struct {
	AllowAlerts          bool          `envconfig:"SENSORD_ALLOW_ALERTS" default:"true"`
	Targets              Targets       `envconfig:"SENSORD_ALERT_TARGETS"`
	Interval             time.Duration `envconfig:"SENSORD_ALERT_INTERVAL" default:"5s"`
	RequestTimeout       time.Duration `envconfig:"SENSORD_ALERT_REQUEST_TIMEOUT" default:"5s"`
	MaxConcurrentRequest int           `envconfig:"SENSORD_ALERT_MAX_CONCURRENT_REQUEST" default:"8"`
}

// Targets is decoded from a JSON array of sink.Target.
type Targets []sink.Target

func (ts *Targets) Decode(value string) error {
	if strings.TrimSpace(value) == "" {
		*ts = nil
		return nil
	}
	targets := []sink.Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

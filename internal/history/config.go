package history

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SENSORD_HISTORY_REQUEST_TIMEOUT" default:"5s"`
	DefaultLimit   int           `envconfig:"SENSORD_HISTORY_DEFAULT_LIMIT" default:"10"`
}

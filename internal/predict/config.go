package predict

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SENSORD_PREDICT_REQUEST_TIMEOUT" default:"5s"`
}

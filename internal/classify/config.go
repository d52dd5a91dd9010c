package classify

type Config struct {
	MaxLimit int `envconfig:"SENSORD_MAX_LIMIT" default:"100"`
}

package sqlite

type Config struct {
	Path string `envconfig:"SENSORD_SQLITE_PATH" default:"data_log.db"`
}

package database

import "time"

type Config struct {
	FileName string `envconfig:"SENSORD_DB_FILE" default:"sensord.db"`
	// How long Open waits for the file lock held by another instance.
	OpenTimeout time.Duration `envconfig:"SENSORD_DB_OPEN_TIMEOUT" default:"5s"`
}

package knn

import "github.com/go-sod/sensord/internal/geom"

type Config struct {
	K              int                   `envconfig:"SENSORD_KNN_K" default:"5"`
	TrainSize      int                   `envconfig:"SENSORD_KNN_TRAIN_SIZE" default:"5000"`
	Seed           uint32                `envconfig:"SENSORD_KNN_SEED" default:"42"`
	MetricFuncType geom.DistanceFuncType `envconfig:"SENSORD_KNN_DISTANCE_FUNC" default:"EUCLIDEAN"`
}

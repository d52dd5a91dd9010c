package predictor

type AlgType string

const (
	AlgTypeSigma AlgType = "SIGMA"
	AlgTypeKNN   AlgType = "KNN"
)

type Config struct {
	Type AlgType `envconfig:"SENSORD_PREDICTOR_TYPE" default:"SIGMA"`
	// Path of the trained artifact. Empty means the built-in reference model.
	Artifact string `envconfig:"SENSORD_PREDICTOR_ARTIFACT"`
}

func (c Config) PredictorType() AlgType {
	return c.Type
}

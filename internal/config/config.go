package sensord

import (
	"github.com/go-sod/sensord/internal/alert"
	"github.com/go-sod/sensord/internal/classify"
	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/history"
	"github.com/go-sod/sensord/internal/node"
	"github.com/go-sod/sensord/internal/predict"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/predictor/knn"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/sqlite"
	"github.com/go-sod/sensord/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider  = (*ServerConfig)(nil)
	_ setup.StoreConfigProvider     = (*ServerConfig)(nil)
	_ setup.PredictorConfigProvider = (*ServerConfig)(nil)
	_ setup.NotifierConfigProvider  = (*ServerConfig)(nil)
)

// ServerConfig configures the classification service.
type ServerConfig struct {
	SrvAddr   string `envconfig:"SENSORD_ADDR" default:":8000"`
	GRPCAddr  string `envconfig:"SENSORD_GRPC_ADDR"`
	MaxConns  int    `envconfig:"SENSORD_MAX_CONNS" default:"256"`
	// pprof listener, disabled when empty
	DebugAddr string `envconfig:"SENSORD_DEBUG_ADDR"`
	Database  database.Config
	Store     reading.Config
	SQLite    sqlite.Config
	Predictor predictor.Config
	KNN       knn.Config
	Classify  classify.Config
	Predict   predict.Config
	History   history.Config
	Alert     alert.Config
}

func (c *ServerConfig) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *ServerConfig) StoreConfig() *reading.Config {
	return &c.Store
}

func (c *ServerConfig) SQLiteConfig() *sqlite.Config {
	return &c.SQLite
}

func (c *ServerConfig) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *ServerConfig) KNNConfig() *knn.Config {
	return &c.KNN
}

func (c *ServerConfig) NotifyConfig() *alert.Config {
	return &c.Alert
}

// NodeConfig configures the simulated sensor node.
type NodeConfig struct {
	SrvAddr string `envconfig:"SENSORD_NODE_ADDR" default:":8001"`
	Node    node.Config
}

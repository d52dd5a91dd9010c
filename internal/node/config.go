package node

import "time"

type Config struct {
	Interval   time.Duration `envconfig:"SENSORD_NODE_INTERVAL" default:"1s"`
	Seed       uint32        `envconfig:"SENSORD_NODE_SEED" default:"0"`
	MQTTBroker string        `envconfig:"SENSORD_NODE_MQTT_BROKER"`
	MQTTTopic  string        `envconfig:"SENSORD_NODE_MQTT_TOPIC" default:"sensord/node/readings"`
}

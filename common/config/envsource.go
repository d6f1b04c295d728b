package config

import (
	"os"
	"strings"
)

// EnvSource reads values from the environment, option names are mapped to
// uppercase with dots replaced by underscores
// (e.g cryptobot.pq_host -> CRYPTOBOT_PQ_HOST).
type EnvSource struct{}

func (e *EnvSource) GetValue(key string) interface{} {
	properKey := strings.ToUpper(key)
	properKey = strings.Replace(properKey, ".", "_", -1)
	v := os.Getenv(properKey)
	if v == "" {
		return nil
	}
	return v
}

func (e *EnvSource) Name() string {
	return "env"
}

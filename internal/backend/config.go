package backend

import (
	"errors"
	"fmt"

	"finwise/internal/config"
)

// requirement names the setting a backend type cannot start without.
type requirement struct {
	setting string
	present func(Config) bool
}

var requirements = map[BackendType][]requirement{
	SQLiteBackend: {
		{"SQLite database path", func(c Config) bool { return c.SQLiteDBPath != "" }},
	},
	PostgresBackend: {
		{"database URL", func(c Config) bool { return c.DatabaseURL != "" }},
	},
	MemoryBackend: nil,
}

// FromAppConfig narrows the process config to what the factory needs.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	reqs, ok := requirements[c.Type]
	if !ok {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	for _, r := range reqs {
		if !r.present(c) {
			return fmt.Errorf("%s is required for %s backend", r.setting, c.Type)
		}
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when an AMQP URL is set")
	}
	return nil
}

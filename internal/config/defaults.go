package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4301,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			URL:            "http://localhost:4302",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/magnus",
			},
		},
		RateLimit: RateLimitConfig{
			API: WindowConfig{
				Limit:         100,
				WindowSeconds: 60,
			},
			Strict: WindowConfig{
				Limit:         10,
				WindowSeconds: 900,
			},
			MaxClients:     10000,
			IdleTTLMinutes: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

package config

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
}

type StorageConfig struct {
	DataDir string
	Backend string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4600,
			MaxConns: 64,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Backend: "file",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, then
// applies environment overrides.
//
// On macOS the backend is UserDefaults (domain: com.lockbox.app).
// On Linux the backend is a JSON file at
// $XDG_CONFIG_HOME/lockbox/config.json.
//
// Environment variables (LOCKBOX_*) override backend values on all
// platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

package config

type Config interface {
	EnvConfig
	SessionConfig
	AuthConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetTemplatesDir() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Session
	Auth
	Cors
}

func New() Config {
	return mainConfig{}
}

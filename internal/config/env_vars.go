package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	templatesVar   = "TEMPLATES_DIR"
	redisAddrVar   = "REDIS_ADDR"
	redisPasswdVar = "REDIS_PASSWORD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "18080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Quiz Web Module")
}

func (EnvVars) GetTemplatesDir() string {
	return GetEnv(templatesVar, "templates")
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "redis-web:6379")
}

func (EnvVars) GetRedisPassword() string {
	return GetEnv(redisPasswdVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

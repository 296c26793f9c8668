package env

import (
	"os"
)

const (
	ListenAddr       = "LISTEN_ADDR"
	WebUrl           = "WEB_URL"
	ChatRedisURL     = "CHAT_REDIS_URL"
	ChatRedisPass    = "CHAT_REDIS_PASS"
	AgentTokenSecret = "AGENT_TOKEN_SECRET"
	WelcomeMessage   = "WELCOME_MESSAGE"
	LogLevel         = "LOG_LEVEL"
	AppEnv           = "ENV"
)

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

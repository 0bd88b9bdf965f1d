package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"

	"devwish/internal/logger"
)

type Config struct {
	ServerAddress   string
	DatabaseURI     string
	RedisAddress    string
	MonitorInterval time.Duration
	LogLevel        logger.Level
	LogToFile       bool
	AuthSecretKey   jwk.Key
	GitHubToken     string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	SMTP            SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type tomlConfig struct {
	ServerAddress   string `toml:"server_address"`
	DatabaseURI     string `toml:"database_uri"`
	RedisAddress    string `toml:"redis_address"`
	MonitorInterval string `toml:"monitor_interval"`
	LogLevel        string `toml:"log_level"`
	LogToFile       bool   `toml:"log_to_file"`
	AuthSecretKey   string `toml:"auth_secret_key"`
	GitHubToken     string `toml:"github_token"`
	LLMAPIKey       string `toml:"llm_api_key"`
	LLMBaseURL      string `toml:"llm_base_url"`
	LLMModel        string `toml:"llm_model"`
	SMTP            struct {
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Sender   string `toml:"sender"`
	} `toml:"smtp"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.RedisAddress == "" {
		tc.RedisAddress = "localhost:6379"
	}

	if tc.MonitorInterval == "" {
		return nil, errors.New("monitor_interval is not set")
	}
	monitorInterval, err := time.ParseDuration(tc.MonitorInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse monitor_interval: %s", tc.MonitorInterval)
	}
	if monitorInterval < 15*time.Second {
		return nil, errors.Errorf("monitor_interval too short (%v), minimum interval: 15s", monitorInterval)
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	if tc.LLMBaseURL == "" {
		tc.LLMBaseURL = "https://api.moonshot.cn/v1"
	}
	if tc.LLMModel == "" {
		tc.LLMModel = "moonshot-v1-32k"
	}

	if tc.SMTP.Port == 0 {
		tc.SMTP.Port = 465
	}
	if tc.SMTP.Sender == "" {
		tc.SMTP.Sender = tc.SMTP.Username
	}

	return &Config{
		ServerAddress:   tc.ServerAddress,
		DatabaseURI:     tc.DatabaseURI,
		RedisAddress:    tc.RedisAddress,
		MonitorInterval: monitorInterval,
		LogLevel:        logLevel,
		LogToFile:       tc.LogToFile,
		AuthSecretKey:   authSecretKey,
		GitHubToken:     tc.GitHubToken,
		LLMAPIKey:       tc.LLMAPIKey,
		LLMBaseURL:      tc.LLMBaseURL,
		LLMModel:        tc.LLMModel,
		SMTP: SMTPConfig{
			Host:     tc.SMTP.Host,
			Port:     tc.SMTP.Port,
			Username: tc.SMTP.Username,
			Password: tc.SMTP.Password,
			Sender:   tc.SMTP.Sender,
		},
	}, nil
}

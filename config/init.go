package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/tracing"
)

type Config struct {
	AppConfig             *AppConfig
	Logger                *logger.Config
	Tracing               *tracing.JaegerConfig
	DocflowDatabaseConfig *DocflowDatabaseConfig
	R2StorageConfig       *R2StorageConfig
	MailboxConfig         *MailboxConfig
	PipelineConfig        *PipelineConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:             &AppConfig{},
		Logger:                &logger.Config{},
		Tracing:               &tracing.JaegerConfig{},
		DocflowDatabaseConfig: &DocflowDatabaseConfig{},
		R2StorageConfig:       &R2StorageConfig{},
		MailboxConfig:         &MailboxConfig{},
		PipelineConfig:        &PipelineConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading docflow config: %v", err)
	}

	return config, nil
}

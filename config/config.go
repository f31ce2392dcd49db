package config

import (
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12222"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DocflowDatabaseConfig struct {
	Host            string `env:"DOCFLOW_POSTGRES_HOST,required"`
	Port            string `env:"DOCFLOW_POSTGRES_PORT,required"`
	User            string `env:"DOCFLOW_POSTGRES_USER,required"`
	DBName          string `env:"DOCFLOW_POSTGRES_DB_NAME,required"`
	Password        string `env:"DOCFLOW_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"DOCFLOW_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"DOCFLOW_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"DOCFLOW_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"DOCFLOW_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"DOCFLOW_POSTGRES_SSL_MODE"`
}

type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID,required"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID,required"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET,required"`
	DocumentBucket  string `env:"BUCKET_NAME_DOCUMENTS" envDefault:"documents"`
}

// MailboxConfig describes the single mailbox the pipeline drains and the
// outbound server used for acknowledgment replies
type MailboxConfig struct {
	ImapServer   string `env:"IMAP_SERVER,required"`
	ImapPort     int    `env:"IMAP_PORT" envDefault:"993"`
	ImapUsername string `env:"IMAP_USERNAME,required"`
	ImapPassword string `env:"IMAP_PASSWORD,required"`
	ImapTLS      bool   `env:"IMAP_TLS" envDefault:"true"`
	ImapFolder   string `env:"IMAP_FOLDER" envDefault:"INBOX"`

	SmtpServer   string `env:"SMTP_SERVER,required"`
	SmtpPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUsername string `env:"SMTP_USERNAME,required"`
	SmtpPassword string `env:"SMTP_PASSWORD,required"`
	SmtpSecurity string `env:"SMTP_SECURITY" envDefault:"starttls"`

	ReplyFromAddress string `env:"REPLY_FROM_ADDRESS,required"`
	ReplyFromDomain  string `env:"REPLY_FROM_DOMAIN,required"`
}

// PipelineConfig tunes the ingestion run behavior
type PipelineConfig struct {
	TargetSubject         string   `env:"PIPELINE_TARGET_SUBJECT" envDefault:"Daily Report"`
	AcceptedContentTypes  []string `env:"PIPELINE_ACCEPTED_CONTENT_TYPES" envSeparator:"," envDefault:"application/pdf"`
	FetchLimit            int      `env:"PIPELINE_FETCH_LIMIT" envDefault:"50"`
	WorkerCount           int      `env:"PIPELINE_WORKER_COUNT" envDefault:"4"`
	RunTimeoutMinutes     int      `env:"PIPELINE_RUN_TIMEOUT_MINUTES" envDefault:"30"`
	RerunPolicy           string   `env:"PIPELINE_RERUN_POLICY" envDefault:"overwrite"`
	RetryMaxAttempts      int      `env:"PIPELINE_RETRY_MAX_ATTEMPTS" envDefault:"5"`
	RetryBaseDelaySeconds int      `env:"PIPELINE_RETRY_BASE_DELAY_SECONDS" envDefault:"1"`
}

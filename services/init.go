package services

import (
	"time"

	"github.com/docflowhq/docflow/config"
	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/repository"
	"github.com/docflowhq/docflow/internal/retry"
	"github.com/docflowhq/docflow/services/classifier"
	"github.com/docflowhq/docflow/services/events"
	"github.com/docflowhq/docflow/services/extractor"
	"github.com/docflowhq/docflow/services/imap"
	"github.com/docflowhq/docflow/services/intake"
	"github.com/docflowhq/docflow/services/pipeline"
	"github.com/docflowhq/docflow/services/report"
	"github.com/docflowhq/docflow/services/smtp"
	"github.com/docflowhq/docflow/services/storage"
	"github.com/docflowhq/docflow/services/validator"
)

type Services struct {
	StorageService interfaces.StorageService
	MailSource     interfaces.MailSource
	EventPublisher interfaces.EventPublisher

	IntakeService     *intake.IntakeService
	ClassifierService *classifier.ClassifierService
	ExtractorService  *extractor.ExtractorService
	ValidatorService  *validator.ValidatorService
	ReportService     *report.ReportService
	PipelineRunner    *pipeline.Runner
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	storageService := storage.NewR2StorageService(
		cfg.R2StorageConfig.AccountID,
		cfg.R2StorageConfig.AccessKeyID,
		cfg.R2StorageConfig.AccessKeySecret,
		cfg.R2StorageConfig.DocumentBucket,
		false,
	)

	replySender := smtp.NewSMTPClient(&smtp.SMTPConfig{
		Server:      cfg.MailboxConfig.SmtpServer,
		Port:        cfg.MailboxConfig.SmtpPort,
		Username:    cfg.MailboxConfig.SmtpUsername,
		Password:    cfg.MailboxConfig.SmtpPassword,
		FromAddress: cfg.MailboxConfig.ReplyFromAddress,
		FromDomain:  cfg.MailboxConfig.ReplyFromDomain,
		Security:    enum.DecodeEmailSecurity(cfg.MailboxConfig.SmtpSecurity),
	})

	mailSource := imap.NewMailSource(&imap.MailboxConfig{
		ID:           cfg.MailboxConfig.ImapUsername,
		Server:       cfg.MailboxConfig.ImapServer,
		Port:         cfg.MailboxConfig.ImapPort,
		Username:     cfg.MailboxConfig.ImapUsername,
		Password:     cfg.MailboxConfig.ImapPassword,
		TLS:          cfg.MailboxConfig.ImapTLS,
		SourceFolder: cfg.MailboxConfig.ImapFolder,
	}, replySender)

	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	}

	retryPolicy := retry.DefaultPolicy()
	if cfg.PipelineConfig.RetryMaxAttempts > 0 {
		retryPolicy.MaxAttempts = cfg.PipelineConfig.RetryMaxAttempts
	}
	if cfg.PipelineConfig.RetryBaseDelaySeconds > 0 {
		retryPolicy.BaseDelay = time.Duration(cfg.PipelineConfig.RetryBaseDelaySeconds) * time.Second
	}

	intakeService := intake.NewIntakeService(log, mailSource, intake.Config{
		TargetSubject: cfg.PipelineConfig.TargetSubject,
		FetchLimit:    cfg.PipelineConfig.FetchLimit,
		RetryPolicy:   retryPolicy,
	})

	classifierService := classifier.NewClassifierService(
		log,
		repos.LedgerRepository,
		repos.ClassificationResultRepository,
		storageService,
		classifier.Config{AcceptedContentTypes: cfg.PipelineConfig.AcceptedContentTypes},
	)

	extractorService := extractor.NewExtractorService(log)
	validatorService := validator.NewValidatorService(log)

	reportService := report.NewReportService(
		log,
		repos.RunReportRepository,
		repos.ValidationRecordRepository,
		storageService,
		enum.RerunPolicy(cfg.PipelineConfig.RerunPolicy),
	)

	runner := pipeline.NewRunner(
		log,
		intakeService,
		classifierService,
		extractorService,
		validatorService,
		reportService,
		mailSource,
		publisher,
		pipeline.Config{
			WorkerCount: cfg.PipelineConfig.WorkerCount,
			RunTimeout:  time.Duration(cfg.PipelineConfig.RunTimeoutMinutes) * time.Minute,
		},
	)

	return &Services{
		StorageService:    storageService,
		MailSource:        mailSource,
		EventPublisher:    publisher,
		IntakeService:     intakeService,
		ClassifierService: classifierService,
		ExtractorService:  extractorService,
		ValidatorService:  validatorService,
		ReportService:     reportService,
		PipelineRunner:    runner,
	}, nil
}

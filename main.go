package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"

	"github.com/docflowhq/docflow/config"
	"github.com/docflowhq/docflow/internal/database"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/repository"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
	"github.com/docflowhq/docflow/server"
	"github.com/docflowhq/docflow/services"
)

func printUsage() {
	fmt.Println("Usage: docflow <command>")
	fmt.Println("Commands:")
	fmt.Println("  migrate   Run database migrations")
	fmt.Println("  run       Execute a single pipeline run for today")
	fmt.Println("  server    Start the application server")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}
	if cfg == nil {
		log.Fatalf("config is empty")
	}

	// Setup the database
	docflowDB, err := database.InitDocflowDatabase(&database.DatabaseConfig{
		DBName:          cfg.DocflowDatabaseConfig.DBName,
		Host:            cfg.DocflowDatabaseConfig.Host,
		Port:            cfg.DocflowDatabaseConfig.Port,
		User:            cfg.DocflowDatabaseConfig.User,
		Password:        cfg.DocflowDatabaseConfig.Password,
		MaxConn:         cfg.DocflowDatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DocflowDatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DocflowDatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DocflowDatabaseConfig.LogLevel,
		SSLMode:         cfg.DocflowDatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Docflow database initialization failed: %v", err)
	}

	switch os.Args[1] {
	case "migrate":

		err := repository.MigrateDB(docflowDB)
		if err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		log.Println("Database migration completed successfully")

	case "run":

		appLogger := logger.NewAppLogger(cfg.Logger)
		appLogger.InitLogger()

		tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
		if err != nil {
			log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
		}
		defer closer.Close()
		opentracing.SetGlobalTracer(tracer)

		repos := repository.InitRepositories(docflowDB)
		svcs, err := services.InitServices(cfg, appLogger, repos)
		if err != nil {
			log.Fatalf("Services initialization failed: %v", err)
		}

		runDate := utils.FormatRunDate(utils.Now())
		report, err := svcs.PipelineRunner.Run(context.Background(), runDate)
		if err != nil {
			log.Fatalf("Pipeline run for %s failed: %v", runDate, err)
		}
		log.Printf("Pipeline run for %s completed: %d messages, %d attachments accepted, %d candidates valid",
			runDate, report.MessagesReceived, report.AttachmentsAccepted, report.CandidatesValid)

	case "server":

		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Docflow starting up...")

		srv, err := server.NewServer(cfg, docflowDB)
		if err != nil {
			log.Fatalf("Server setup failed: %v", err)
		}

		err = srv.Run()
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}

		log.Println("Shutdown complete")

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

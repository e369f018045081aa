package bootstrap

import (
	"context"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"claimintake/internal/ai"
	appsvc "claimintake/internal/app"
	"claimintake/internal/cache"
	"claimintake/internal/config"
	"claimintake/internal/metrics"
	"claimintake/internal/platform/logger"
	mysqlClient "claimintake/internal/platform/mysql"
	rabbitmqClient "claimintake/internal/platform/rabbitmq"
	redisClient "claimintake/internal/platform/redis"
	s3Client "claimintake/internal/platform/s3"
	"claimintake/internal/repository"
	"claimintake/internal/storage"
	"claimintake/internal/worker"
)

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	MySQL   *gorm.DB
	Redis   *redis.Client
	MQConn  *amqp.Connection
	S3      *awss3.Client
	Objects *storage.S3Store
	Metrics *metrics.Metrics

	Tenants  *appsvc.TenantService
	Cases    *appsvc.CaseService
	Pipeline *appsvc.Pipeline
	Bulk     *appsvc.BulkProcessor

	CaseWorker *worker.CaseProcessWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.GinMode == "debug")
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlClient.Migrate(mysqlDB); err != nil {
		return err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = redisCli

	s3Cli, err := s3Client.New(ctx, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3.Bucket)
	if err != nil {
		return err
	}
	a.S3 = s3Cli
	a.Objects = storage.NewS3Store(s3Cli, cfg.S3.Bucket)

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.CaseProcessQueue)
		if err != nil {
			return err
		}
		a.MQConn = mqConn
	}

	a.Metrics = metrics.New(prometheus.DefaultRegisterer)

	tenantRepo := repository.NewTenantRepository(mysqlDB)
	caseRepo := repository.NewCaseRepository(mysqlDB)
	fileRepo := repository.NewFileRepository(mysqlDB)
	responseRepo := repository.NewResponseRepository(mysqlDB)
	linkRepo := repository.NewResponseFileRepository(mysqlDB)
	textCache := cache.NewTextCache(redisCli, cfg.TextCacheTTL())

	validator, err := ai.NewValidator()
	if err != nil {
		return err
	}
	generator := ai.NewChatGenerator(ai.NewOpenAICompatibleClient(cfg.LLMTimeout()), ai.ChatConfig{
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		JSONMode: cfg.LLM.JSONMode,
	})
	analyzer := ai.NewAnalyzer(generator, validator,
		ai.WithMaxAttempts(cfg.LLM.MaxAttempts),
		ai.WithRecorder(a.Metrics),
		ai.WithLogger(a.Logger.Named("analyzer")),
	)

	a.Tenants = appsvc.NewTenantService(tenantRepo)
	a.Cases = appsvc.NewCaseService(appsvc.CaseServiceDeps{
		Tenants:    tenantRepo,
		Cases:      caseRepo,
		Files:      fileRepo,
		Responses:  responseRepo,
		Links:      linkRepo,
		Objects:    a.Objects,
		Cache:      textCache,
		PresignTTL: cfg.PresignTTL(),
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})
	a.Pipeline = appsvc.NewPipeline(appsvc.PipelineDeps{
		Tenants:   tenantRepo,
		Cases:     caseRepo,
		Files:     fileRepo,
		Responses: responseRepo,
		Links:     linkRepo,
		Objects:   a.Objects,
		Cache:     textCache,
		Analyzer:  analyzer,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	})

	var publisher appsvc.JobPublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewCaseJobPublisher(a.MQConn, cfg.RabbitMQ.CaseProcessQueue)
	}
	a.Bulk = appsvc.NewBulkProcessor(a.Pipeline, publisher, cfg.Pipeline.BulkConcurrency, a.Logger)

	if a.MQConn != nil {
		a.CaseWorker = worker.NewCaseProcessWorker(a.MQConn, a.Bulk, cfg.RabbitMQ.CaseProcessQueue, a.Logger)
		if err := a.CaseWorker.Start(ctx); err != nil {
			return fmt.Errorf("start case worker failed: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.CaseWorker != nil {
		a.CaseWorker.Close()
	}
	if a.Pipeline != nil {
		a.Pipeline.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docstream/api/handlers"
	"github.com/feichai0017/docstream/api/routes"
	"github.com/feichai0017/docstream/config"
	"github.com/feichai0017/docstream/internal/embedding"
	"github.com/feichai0017/docstream/internal/llm"
	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/internal/pipeline"
	"github.com/feichai0017/docstream/internal/raster"
	"github.com/feichai0017/docstream/internal/service/document"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
	"github.com/feichai0017/docstream/pkg/storage"
	miniostorage "github.com/feichai0017/docstream/pkg/storage/minio"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipelineCfg, err := config.LoadPipelineConfig(os.Getenv("PIPELINE_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load pipeline config", logger.Error(err))
	}

	// init store: Postgres when configured, in-memory otherwise
	var st store.Store
	if pgCfg := config.GetPostgresConfig(); pgCfg.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, pgCfg.DSN)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", logger.Error(err))
		}
		defer pg.Close()
		st = pg
		log.Info("Using Postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Info("Using in-memory store")
	}

	// init notifiers: in-process hub for SSE, Redis pub/sub when configured
	hub := notify.NewHub()
	notifiers := []notify.Notifier{hub}
	if redisCfg := config.GetRedisConfig(); redisCfg.Addr != "" {
		publisher := notify.NewRedisPublisher(redisCfg.Addr, redisCfg.DB, redisCfg.Channel)
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Info("Redis status publisher enabled", logger.String("addr", redisCfg.Addr))
	}
	notifier := notify.NewMulti(log, notifiers...)

	// init model adapter and optional embedder
	ollamaCfg := config.GetOllamaConfig()
	client := llm.NewOllamaClient(&llm.OllamaConfig{
		Endpoint: ollamaCfg.Endpoint,
		Model:    ollamaCfg.Model,
		Timeout:  pipelineCfg.AttemptTimeoutDuration(),
	})
	defer client.Close()

	var embedder embedding.Embedder = embedding.Null{}
	if ollamaCfg.EmbedModel != "" {
		e, err := embedding.NewOllamaEmbedder(ollamaCfg.Endpoint, ollamaCfg.EmbedModel)
		if err != nil {
			log.Fatal("Failed to init embedder", logger.Error(err))
		}
		embedder = e
		log.Info("Embeddings enabled", logger.String("model", ollamaCfg.EmbedModel))
	}

	// init optional upload archival
	var archive storage.Storage
	if minioCfg := config.GetMinioConfig(); minioCfg.Endpoint != "" {
		archive, err = miniostorage.NewMinioStorage(&miniostorage.Config{
			Endpoint:   minioCfg.Endpoint,
			AccessKey:  minioCfg.AccessKey,
			SecretKey:  minioCfg.SecretKey,
			UseSSL:     minioCfg.UseSSL,
			Region:     minioCfg.Region,
			BucketName: minioCfg.BucketName,
		}, log)
		if err != nil {
			log.Fatal("Failed to init MinIO storage", logger.Error(err))
		}
		log.Info("Upload archival enabled", logger.String("endpoint", minioCfg.Endpoint))
	}

	// assemble the pipeline
	splitter := pipeline.NewSplitter(raster.NewFitzRasterizer(), pipelineCfg.PagesDir, pipelineCfg.DPI, log)
	parser := pipeline.NewPageParser(client, log, &pipeline.PageParserConfig{
		MaxRetries:     pipelineCfg.MaxRetries,
		AttemptTimeout: pipelineCfg.AttemptTimeoutDuration(),
	})
	processor := pipeline.NewProcessor(st, splitter, parser, embedder, notifier, log, &pipeline.ProcessorConfig{
		PageConcurrency: pipelineCfg.PageConcurrency,
	})

	queue := pipeline.NewQueue(processor.Process, log, &pipeline.QueueConfig{
		Capacity: pipelineCfg.QueueCapacity,
	})
	queue.Start(ctx)

	docService := document.NewService(st, queue, archive, log, &document.ServiceConfig{
		UploadDir:   pipelineCfg.UploadDir,
		MaxFileSize: int64(pipelineCfg.MaxFileSizeMB) * 1024 * 1024,
	})

	// init handlers
	h := handlers.NewHandlers(docService, hub, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	serverCfg := config.GetServerConfig()
	srv := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", serverCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}

	// stop accepting work, then let the in-flight document finish or abort
	cancel()
	queue.Stop()
}

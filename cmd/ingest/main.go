package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/feichai0017/docstream/config"
	"github.com/feichai0017/docstream/internal/embedding"
	"github.com/feichai0017/docstream/internal/llm"
	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/internal/pipeline"
	"github.com/feichai0017/docstream/internal/raster"
	"github.com/feichai0017/docstream/internal/service/document"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
)

// One-shot ingestion: process a single file with an in-memory store and
// print the extracted pages as JSON. Useful for trying out models and
// prompts without running the server.
func main() {
	var (
		pagesDir = flag.String("pages-dir", "media/pages", "directory for rasterized page images")
		timeout  = flag.Duration("timeout", 30*time.Minute, "overall processing timeout")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] <file>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pipelineCfg, err := config.LoadPipelineConfig(os.Getenv("PIPELINE_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load pipeline config", logger.Error(err))
	}
	pipelineCfg.PagesDir = *pagesDir

	ollamaCfg := config.GetOllamaConfig()
	client := llm.NewOllamaClient(&llm.OllamaConfig{
		Endpoint: ollamaCfg.Endpoint,
		Model:    ollamaCfg.Model,
		Timeout:  pipelineCfg.AttemptTimeoutDuration(),
	})
	defer client.Close()

	st := store.NewMemoryStore()
	splitter := pipeline.NewSplitter(raster.NewFitzRasterizer(), pipelineCfg.PagesDir, pipelineCfg.DPI, log)
	parser := pipeline.NewPageParser(client, log, &pipeline.PageParserConfig{
		MaxRetries:     pipelineCfg.MaxRetries,
		AttemptTimeout: pipelineCfg.AttemptTimeoutDuration(),
	})
	processor := pipeline.NewProcessor(st, splitter, parser, embedding.Null{}, notify.NewLogNotifier(log), log, nil)

	queue := pipeline.NewQueue(processor.Process, log, nil)
	queue.Start(ctx)
	defer queue.Stop()

	svc := document.NewService(st, queue, nil, log, &document.ServiceConfig{
		UploadDir: pipelineCfg.UploadDir,
	})

	doc, err := svc.IngestPath(ctx, path, "")
	if err != nil {
		log.Fatal("Failed to ingest file", logger.Error(err))
	}

	// Poll until the document reaches a terminal state.
	for {
		doc, err = st.GetDocument(ctx, doc.ID)
		if err != nil {
			log.Fatal("Failed to read document", logger.Error(err))
		}
		if doc.Status.Terminal() {
			break
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			log.Fatal("Timed out waiting for processing", logger.Error(ctx.Err()))
		}
	}

	pages, err := st.ListPages(ctx, doc.ID)
	if err != nil {
		log.Fatal("Failed to list pages", logger.Error(err))
	}

	out := map[string]any{
		"id":     doc.ID,
		"name":   doc.Name,
		"status": doc.Status,
		"pages":  pages,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("Failed to encode output", logger.Error(err))
	}

	if doc.Status != models.StatusReady {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go_lecture_backend/bootstrap"
	"go_lecture_backend/config"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/queue"
	"go_lecture_backend/services"

	"github.com/joho/godotenv"
)

const dequeueTimeout = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Warn("no .env file loaded", "error", err)
	}
	logging.Init()

	cfg := config.LoadConfig()
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logging.Logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logging.Logger.Info("shutdown signal received")
		cancel()
	}()

	jobQueue := app.Infrastructure.Queue

	// operator switch: move everything off the failed list back to pending
	// before consuming
	if len(os.Args) > 1 && os.Args[1] == "--replay-failed" {
		if n, err := jobQueue.ReplayFailed(ctx); err != nil {
			logging.Logger.Error("failed-list replay failed", "error", err)
		} else {
			logging.Logger.Info("replayed failed jobs", "count", n)
		}
	}

	// reclaim jobs stranded by a previous crash before consuming
	if n, err := jobQueue.RequeueOrphans(ctx); err != nil {
		logging.Logger.Error("orphan requeue failed", "error", err)
	} else if n > 0 {
		logging.Logger.Info("requeued orphaned jobs", "count", n)
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runWorker(ctx, worker, jobQueue, app.Services.RenderService)
		}(i)
	}
	logging.Logger.Info("render workers started", "count", cfg.WorkerCount, "queue", cfg.QueueName)

	wg.Wait()
	if err := app.Shutdown(); err != nil {
		logging.Logger.Error("app shutdown", "error", err)
	}
}

func runWorker(ctx context.Context, worker int, jobQueue queue.JobQueue, render *services.RenderService) {
	log := logging.Logger.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, token, err := jobQueue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Info("job received", "asset_id", job.AssetID)
		// a job, once dequeued, runs to completion or failure; shutdown
		// waits rather than cancelling mid-render
		if err := render.Process(context.Background(), job); err != nil {
			log.Error("job failed", "asset_id", job.AssetID, "error", err)
			if nackErr := jobQueue.Nack(context.Background(), token); nackErr != nil {
				log.Error("nack failed", "asset_id", job.AssetID, "error", nackErr)
			}
			continue
		}
		if err := jobQueue.Ack(context.Background(), token); err != nil {
			log.Error("ack failed", "asset_id", job.AssetID, "error", err)
		}
	}
}

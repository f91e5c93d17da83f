package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ytcbow/config"
	"ytcbow/metrics"
	"ytcbow/model"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
)

// ChannelUpdater runs one channel crawl.
type ChannelUpdater interface {
	UpdateChannel(ctx context.Context, channelID string, withComments bool) (model.CrawlResult, error)
}

type Worker struct {
	config     *config.Config
	natsConn   *nats.Conn
	publisher  *Publisher
	crawler    ChannelUpdater
	limiter    *rate.Limiter
	cancelFunc context.CancelFunc
}

func NewWorker(cfg *config.Config, nc *nats.Conn, crawler ChannelUpdater) *Worker {
	return &Worker{
		config:    cfg,
		natsConn:  nc,
		publisher: NewPublisher(nc),
		crawler:   crawler,
		limiter:   newLimiter(cfg.RateLimit),
	}
}

func newLimiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

func (w *Worker) Start(ctx context.Context) error {
	log.Println("Starting crawl worker...")

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	_, err := w.natsConn.QueueSubscribe(SubjectCrawl, QueueGroup, func(msg *nats.Msg) {
		w.handleCrawlRequest(workerCtx, msg)
	})
	if err != nil {
		cancel()
		return err
	}
	log.Printf("Successfully subscribed to %s", SubjectCrawl)

	if len(w.config.CrawlChannels) > 0 && w.config.FetchInterval > 0 {
		go w.startScheduler(workerCtx)
	}
	return nil
}

func (w *Worker) Stop() {
	log.Println("Stopping crawl worker...")
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
}

func (w *Worker) handleCrawlRequest(ctx context.Context, msg *nats.Msg) {
	result, err := w.Process(ctx, msg.Data)
	metrics.NatsMessagesReceived.WithLabelValues(SubjectCrawl, metrics.Status(err)).Inc()
	if err != nil {
		log.Printf("[ERROR] Crawl request failed: %v", err)
	}
	if result.ChannelID == "" {
		return
	}
	if err := w.publisher.publishResult(result); err != nil {
		log.Printf("[ERROR] Failed to publish crawl result: %v", err)
	}
}

// Process decodes one crawl request and runs it, waiting on the rate limiter first.
// The returned result is always populated when the request could be decoded.
func (w *Worker) Process(ctx context.Context, data []byte) (model.CrawlResult, error) {
	var req model.CrawlRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return model.CrawlResult{}, fmt.Errorf("unmarshal crawl request: %w", err)
	}
	if req.ChannelID == "" {
		return model.CrawlResult{}, fmt.Errorf("crawl request %q has no channel id", req.RequestID)
	}
	log.Printf("Processing crawl request: %+v", req)

	if err := w.limiter.Wait(ctx); err != nil {
		return model.CrawlResult{ChannelID: req.ChannelID, RequestID: req.RequestID, Error: err.Error(), ProcessedAt: time.Now()}, err
	}

	result, err := w.crawler.UpdateChannel(ctx, req.ChannelID, req.Comments)
	result.RequestID = req.RequestID
	if err != nil {
		return result, err
	}
	log.Printf("Completed crawl request: %s", req.RequestID)
	return result, nil
}

func (w *Worker) startScheduler(ctx context.Context) {
	log.Printf("Scheduling periodic crawls of %d channels every %v", len(w.config.CrawlChannels), w.config.FetchInterval)

	ticker := time.NewTicker(w.config.FetchInterval)
	defer ticker.Stop()

	w.scheduleCrawls()
	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-ticker.C:
			log.Println("Triggering scheduled crawl")
			w.scheduleCrawls()
		}
	}
}

func (w *Worker) scheduleCrawls() {
	for _, channelID := range w.config.CrawlChannels {
		if _, err := w.publisher.RequestCrawl(channelID, true); err != nil {
			log.Printf("[ERROR] Failed to publish crawl request for %s: %v", channelID, err)
		}
	}
}

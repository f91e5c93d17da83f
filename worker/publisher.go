package worker

import (
	"encoding/json"
	"log"

	"ytcbow/metrics"
	"ytcbow/model"

	"github.com/google/uuid"
)

const (
	SubjectCrawl       = "crawl.channel"
	SubjectCrawlResult = "crawl.channel.result"
	QueueGroup         = "crawlers"
)

// Conn is the part of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher enqueues crawl requests for the worker pool.
type Publisher struct {
	conn Conn
}

func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn}
}

// RequestCrawl publishes a crawl request and returns its request id.
func (p *Publisher) RequestCrawl(channelID string, comments bool) (string, error) {
	req := model.CrawlRequest{
		ChannelID: channelID,
		Comments:  comments,
		RequestID: generateRequestID(channelID),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	err = p.conn.Publish(SubjectCrawl, data)
	metrics.NatsMessagesPublished.WithLabelValues(SubjectCrawl, metrics.Status(err)).Inc()
	if err != nil {
		return "", err
	}
	log.Printf("[INFO] Scheduled crawl for channel %s (%s)", channelID, req.RequestID)
	return req.RequestID, nil
}

func (p *Publisher) publishResult(result model.CrawlResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	err = p.conn.Publish(SubjectCrawlResult, data)
	metrics.NatsMessagesPublished.WithLabelValues(SubjectCrawlResult, metrics.Status(err)).Inc()
	return err
}

func generateRequestID(channelID string) string {
	return channelID + "-" + uuid.NewString()
}

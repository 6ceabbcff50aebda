package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unclebandit/outreach-backend/internal/outreach"
)

// TopicOutreachRuns carries queued campaign runs, both in-process and on
// the RabbitMQ side (cmd/worker declares the same name).
const TopicOutreachRuns = "outreach_runs"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// RunRequest is the payload queued for an asynchronous campaign run.
type RunRequest struct {
	Channel    string            `json:"channel"`
	TemplateID int               `json:"template_id"`
	Limit      int               `json:"limit"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// Runner executes one campaign run; satisfied by outreach.Orchestrator.
type Runner interface {
	RunOutreach(ctx context.Context, channel string, templateID, limit int, extra map[string]string) (*outreach.CampaignResult, error)
}

// InMemoryQueue is an in-process queue with bounded retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartOutreachRunSubscriber consumes queued RunRequests and drives the
// campaign runner. Precondition failures (bad template, unknown channel)
// are not retried; they would fail the same way every time.
func StartOutreachRunSubscriber(q Queue, runner Runner) {
	go func() {
		err := q.Subscribe(TopicOutreachRuns, func(payload any) error {
			req, ok := payload.(RunRequest)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected RunRequest")
				return nil
			}

			log.Printf("📩 Running queued outreach: channel=%s template=%d limit=%d\n", req.Channel, req.TemplateID, req.Limit)

			result, err := runner.RunOutreach(context.Background(), req.Channel, req.TemplateID, req.Limit, req.Variables)
			if err != nil {
				log.Println("⚠️ Queued outreach run failed:", err)
				return nil
			}

			log.Printf("✅ Campaign run %s finished: total=%d sent=%d failed=%d deferred=%d\n",
				result.RunID, result.Total, result.Sent, result.Failed, result.Deferred)
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for outreach_runs:", err)
		}
	}()
}

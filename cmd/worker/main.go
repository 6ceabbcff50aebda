package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/streadway/amqp"

	"github.com/unclebandit/outreach-backend/internal/channel"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/dispatch"
	"github.com/unclebandit/outreach-backend/internal/outreach"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db.Init(cfg.DatabaseURL)

	orchestrator := &outreach.Orchestrator{
		TemplateRepo: &repository.TemplateRepository{DB: db.DB},
		ContactRepo:  &repository.ContactRepository{DB: db.DB},
		LogRepo:      &repository.OutreachLogRepository{DB: db.DB},
		Channels:     channel.Build(cfg),
		Caps:         outreach.NewDailyCaps(cfg.DailyCaps),
		Dispatch: dispatch.Config{
			Concurrency:  cfg.DispatchConcurrency,
			Window:       cfg.DispatchWindow,
			CapPerWindow: cfg.DispatchCapPerWindow,
			SendTimeout:  cfg.SendTimeout,
		},
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.TopicOutreachRuns,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			handleRunDelivery(d.Body, d.Headers, orchestrator, func(body []byte, attempt int) {
				republish(ch, body, attempt)
			})
			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for outreach runs...")
	<-forever
}

const maxRunAttempts = 3

// handleRunDelivery runs one queued campaign and decides about retrying.
// A plain Nack requeue would loop forever on a run that fails the same
// way every time, so retries are republished with an incremented
// x-retry-count header and dropped once the attempt limit is hit.
func handleRunDelivery(body []byte, headers amqp.Table, runner queue.Runner, requeue func(body []byte, attempt int)) {
	err := handleDelivery(body, runner)
	if err == nil {
		return
	}
	log.Println("Failed to run outreach:", err)

	attempt := retryCount(headers) + 1
	if attempt < maxRunAttempts {
		requeue(body, attempt)
		return
	}
	log.Printf("Dropping run after %d attempts: %s\n", attempt, body)
}

func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

func republish(ch *amqp.Channel, body []byte, attempt int) {
	err := ch.Publish(
		"",
		queue.TopicOutreachRuns,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{"x-retry-count": int32(attempt)},
			Body:        body,
		},
	)
	if err != nil {
		log.Println("Failed to requeue run:", err)
	}
}

// handleDelivery decodes one queued run and executes it. Precondition
// failures come back as errors so the caller can decide about requeueing.
func handleDelivery(body []byte, runner queue.Runner) error {
	var req queue.RunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Println("Invalid run payload:", err)
		return nil // poison message, do not requeue
	}

	result, err := runner.RunOutreach(context.Background(), req.Channel, req.TemplateID, req.Limit, req.Variables)
	if err != nil {
		return err
	}

	log.Printf("✅ Campaign run %s finished: total=%d sent=%d failed=%d deferred=%d\n",
		result.RunID, result.Total, result.Sent, result.Failed, result.Deferred)
	return nil
}

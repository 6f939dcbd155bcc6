package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// processRetries bounds how often a scan job is retried in-process
// before the message is dropped.  Scans stay in the database, so a
// dropped job can always be replayed by re-uploading or requeueing.
const processRetries = 3

// Processor handles one scan job.  Returning an error triggers an
// in-process retry; after the retry budget the message is acked and the
// failure logged so a poisoned job cannot wedge the queue.
type Processor interface {
	Process(ctx context.Context, scanID uint64) error
}

// StartScanConsumer connects to RabbitMQ, declares the scan.uploaded
// queue (durable), and processes jobs with the given Processor.  It
// runs a reconnect loop with exponential backoff and never returns
// under normal operation; processing errors are logged and the
// offending message is dropped after the retry budget so the worker
// keeps running.
func StartScanConsumer(p Processor) error {
	url := BrokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("scan-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, p); err != nil {
			log.Printf("scan-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, p Processor) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// OCR is the slow step; keep the prefetch small so one worker does
	// not hoard jobs.
	if err := ch.Qos(8, 0, false); err != nil {
		log.Printf("scan-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(ScanQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ScanQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, p); err != nil {
			log.Printf("scan-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, p Processor) error {
	var ev ScanUploadedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= processRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		lastErr = p.Process(ctx, ev.ScanID)
		cancel()
		if lastErr == nil {
			return nil
		}
		log.Printf("scan-consumer: scan %d attempt %d/%d: %v", ev.ScanID, attempt, processRetries, lastErr)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	// Give up on this delivery; the scan row keeps the raw image, so an
	// operator can re-trigger processing once the cause is fixed.
	log.Printf("scan-consumer: dropping scan %d after %d attempts: %v", ev.ScanID, processRetries, lastErr)
	return nil
}

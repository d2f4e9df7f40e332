package sqsqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type Consumer struct {
	SQS      *sqs.Client
	QueueURL string

	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32
}

type Handler func(ctx context.Context, sig EntrySignal) error

// PollConcurrent receives entry signals and hands them to a pool of workers.
// A signal is deleted once the handler returns nil; on error it is left for
// SQS redrive. Returns when ctx is done, after in-flight signals finish.
func (c *Consumer) PollConcurrent(ctx context.Context, workers int, handler Handler) error {
	if workers <= 0 {
		workers = 1
	}

	msgs := make(chan types.Message, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgs {
				c.handle(ctx, m, handler)
			}
		}()
	}

	err := c.receiveLoop(ctx, msgs)
	close(msgs)
	wg.Wait()
	return err
}

func (c *Consumer) receiveLoop(ctx context.Context, out chan<- types.Message) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.QueueURL,
			MaxNumberOfMessages: c.MaxMessages,
			WaitTimeSeconds:     c.WaitTimeSeconds,
			VisibilityTimeout:   c.VisibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("sqs receive message failed", "err", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		for _, m := range res.Messages {
			select {
			case out <- m:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m types.Message, handler Handler) {
	// poison payloads are dropped so they don't loop forever
	if m.Body == nil {
		c.delete(ctx, m)
		return
	}
	var sig EntrySignal
	if err := json.Unmarshal([]byte(*m.Body), &sig); err != nil || sig.EntryID == "" {
		slog.Warn("sqs dropping malformed entry signal", "err", err)
		c.delete(ctx, m)
		return
	}
	if err := handler(ctx, sig); err != nil {
		slog.Error("sqs handler error", "err", err, "entry_id", sig.EntryID)
		return
	}
	c.delete(ctx, m)
}

func (c *Consumer) delete(ctx context.Context, m types.Message) {
	if _, err := c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.QueueURL,
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		slog.Warn("sqs delete message failed", "err", err)
	}
}

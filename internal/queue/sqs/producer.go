package sqsqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

const defaultGroupBuckets = 64

// EntrySignal tells the dispatcher that a queue entry was created. The entry
// itself stays in Postgres; the signal only carries its id.
type EntrySignal struct {
	EntryID string `json:"entryId"`
	Scope   string `json:"scope,omitempty"`
}

type Producer struct {
	SQS      *sqs.Client
	QueueURL string
	// GroupBuckets spreads FIFO message groups; ignored for standard queues.
	GroupBuckets int
}

func (p *Producer) Publish(ctx context.Context, sig EntrySignal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	in := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: str(string(body)),
	}
	if strings.HasSuffix(p.QueueURL, ".fifo") {
		in.MessageGroupId = str(messageGroupIDBucketed(sig.Scope, sig.EntryID, p.GroupBuckets))
		in.MessageDeduplicationId = str(sig.EntryID)
	}
	_, err = p.SQS.SendMessage(ctx, in)
	return err
}

// messageGroupIDBucketed keeps ordering out of the way: entries are spread
// over a fixed number of groups per scope so one slow group cannot stall a
// whole tenant.
func messageGroupIDBucketed(scope, entryID string, buckets int) string {
	if buckets <= 0 {
		buckets = defaultGroupBuckets
	}
	if scope == "" {
		scope = "platform"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(entryID))
	return fmt.Sprintf("%s:%d", scope, h.Sum32()%uint32(buckets))
}

func str(s string) *string { return &s }

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/pkg/types"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends report rows to a Kafka topic, one JSON message per row keyed
// by server and database so a database's rows land on one partition.
type Publisher struct {
	w   messageWriter
	now func() time.Time
}

func New(cfg config.KafkaConfig) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

func (p *Publisher) Publish(ctx context.Context, rows []types.TableRowStat) error {
	if len(rows) == 0 {
		return nil
	}
	ts := p.now()
	msgs := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(row.Server + "/" + row.Database),
			Value: value,
			Time:  ts,
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d rows: %w", len(msgs), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

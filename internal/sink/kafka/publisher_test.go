package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/pkg/types"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &Publisher{w: fw, now: func() time.Time { return ts }}

	rows := []types.TableRowStat{
		{Server: "WWMAVASQL01", Database: "Analytics_Sales", Table: "FactOrders", RowCount: "1200"},
		types.FailedDatabase("WWMAVASQL01", "Analytics_Old", errors.New("offline")),
	}
	require.NoError(t, p.Publish(context.Background(), rows))
	require.Len(t, fw.msgs, 2)

	assert.Equal(t, "WWMAVASQL01/Analytics_Sales", string(fw.msgs[0].Key))
	assert.Equal(t, ts, fw.msgs[0].Time)
	assert.JSONEq(t, `{"server":"WWMAVASQL01","database":"Analytics_Sales","table":"FactOrders","rowCount":"1200"}`,
		string(fw.msgs[0].Value))

	var failed types.TableRowStat
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &failed))
	assert.True(t, failed.Failed)
	assert.Equal(t, types.NullRowCount, failed.RowCount)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestPublish_Empty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	p := &Publisher{w: fw, now: time.Now}
	require.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublish_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{w: fw, now: time.Now}
	err := p.Publish(context.Background(), []types.TableRowStat{{Server: "s", Database: "d"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNew(t *testing.T) {
	p := New(config.KafkaConfig{Enabled: true, Brokers: []string{"b1:9092", "b2:9092"}, Topic: "table-census"})
	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "table-census", w.Topic)
	assert.NotNil(t, w.Addr)
}

package producer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	fetchErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		if r.fetchErr != nil {
			return kafka.Message{}, r.fetchErr
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestNewKafkaProducer_Disabled(t *testing.T) {
	p, err := NewKafkaProducer(nil, "topic")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventLogout}))
	assert.NoError(t, p.Close())

	p, err = NewKafkaProducer([]string{"localhost:9092"}, "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestKafkaProducer_EmitKeysByUser(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "activity"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventOTPSent, UserID: "u1", CreatedAt: now}))
	require.NoError(t, p.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventLoginFailed, Username: "ghost"}))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, []byte("u1"), w.msgs[0].Key)
	assert.Nil(t, w.msgs[1].Key)

	var got telemetry.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, telemetry.EventOTPSent, got.Type)
	assert.True(t, got.CreatedAt.Equal(now))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducer_EmitError(t *testing.T) {
	p := &KafkaProducer{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "activity"}
	assert.Error(t, p.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventLogout}))
}

func TestKafkaConsumer_RunHandlesAndCommits(t *testing.T) {
	good, _ := json.Marshal(telemetry.Event{Type: telemetry.EventLogout, UserID: "u1"})
	r := &fakeReader{
		msgs: []kafka.Message{
			{Offset: 1, Value: good},
			{Offset: 2, Value: []byte("not json")},
			{Offset: 3, Value: good},
		},
		fetchErr: io.EOF,
	}
	c := &KafkaConsumer{reader: r, logger: discardLogger()}

	var handled []string
	err := c.Run(context.Background(), func(ctx context.Context, e *telemetry.Event) error {
		handled = append(handled, e.UserID)
		return nil
	})
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"u1", "u1"}, handled)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestKafkaConsumer_HandlerErrorStopsWithoutCommit(t *testing.T) {
	good, _ := json.Marshal(telemetry.Event{Type: telemetry.EventLogout})
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: good}}}
	c := &KafkaConsumer{reader: r, logger: discardLogger()}

	err := c.Run(context.Background(), func(context.Context, *telemetry.Event) error {
		return errors.New("db down")
	})
	assert.Error(t, err)
	assert.Empty(t, r.committed)
}

func TestKafkaConsumer_StopsOnCancel(t *testing.T) {
	c := &KafkaConsumer{reader: &fakeReader{}, logger: discardLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Run(ctx, func(context.Context, *telemetry.Event) error { return nil }))
}

func TestNewKafkaConsumer_Validation(t *testing.T) {
	_, err := NewKafkaConsumer(nil, "t", "g", nil)
	assert.Error(t, err)
	_, err = NewKafkaConsumer([]string{"localhost:9092"}, "t", "", nil)
	assert.Error(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

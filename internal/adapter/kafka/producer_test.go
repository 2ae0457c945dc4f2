package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/cardfinder/internal/adapter/kafka"
	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type MockProducerClient struct {
	mock.Mock
}

func (c *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := c.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (c *MockProducerClient) Close() {
	c.Called()
}

type MockEncoder struct {
	mock.Mock
}

func (e *MockEncoder) Encode(v any) ([]byte, error) {
	args := e.Called(v)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func newProducer(
	t *testing.T, cl *MockProducerClient, enc *MockEncoder,
) kafka.SearchEventsProducer {
	t.Helper()
	p, err := kafka.NewSearchEventsProducer(
		kafka.ProducerClientInstanceOpt(cl),
		kafka.ProducerEncoderOpt(enc),
	)
	require.NoError(t, err)
	return p
}

func TestSearchEventsProducer(t *testing.T) {
	occurredAt := time.UnixMilli(1760000000000)
	evt := domain.SearchEvent{
		Username:    "jane@example.com",
		Query:       domain.SearchRequest{"bank": "Chase"},
		Outcome:     domain.OutcomeSuccess,
		ResultCount: 4,
		OccurredAt:  occurredAt,
	}
	wantSchema := schema.CardSearchEventV1{
		Username:    "jane@example.com",
		Query:       map[string]string{"bank": "Chase"},
		Outcome:     "success",
		ResultCount: 4,
		OccurredAt:  occurredAt,
	}

	t.Run("Produced", func(t *testing.T) {
		cl := new(MockProducerClient)
		enc := new(MockEncoder)
		enc.On("Encode", wantSchema).Return([]byte("payload"), nil)
		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
			func(rs []*kgo.Record) bool {
				return len(rs) == 1 &&
					string(rs[0].Key) == "jane@example.com" &&
					string(rs[0].Value) == "payload"
			},
		)).Return(kgo.ProduceResults{{}})

		p := newProducer(t, cl, enc)
		require.NoError(t, p.ProduceSearchEvent(t.Context(), evt))
		cl.AssertExpectations(t)
		enc.AssertExpectations(t)
	})

	t.Run("NilQueryEncodedAsEmptyMap", func(t *testing.T) {
		cl := new(MockProducerClient)
		enc := new(MockEncoder)
		enc.On("Encode", mock.MatchedBy(func(s schema.CardSearchEventV1) bool {
			return s.Query != nil && len(s.Query) == 0 && s.FailureKind == "service"
		})).Return([]byte("payload"), nil)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{}})

		p := newProducer(t, cl, enc)
		err := p.ProduceSearchEvent(t.Context(), domain.SearchEvent{
			Username:    "jane@example.com",
			Outcome:     domain.OutcomeFailure,
			FailureKind: "service",
		})
		require.NoError(t, err)
	})

	t.Run("EncodeError", func(t *testing.T) {
		cl := new(MockProducerClient)
		enc := new(MockEncoder)
		encErr := errors.New("encode failed")
		enc.On("Encode", mock.Anything).Return(nil, encErr)

		p := newProducer(t, cl, enc)
		err := p.ProduceSearchEvent(t.Context(), evt)
		assert.ErrorIs(t, err, encErr)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})

	t.Run("BrokerError", func(t *testing.T) {
		cl := new(MockProducerClient)
		enc := new(MockEncoder)
		brokerErr := errors.New("not enough replicas")
		enc.On("Encode", mock.Anything).Return([]byte("payload"), nil)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: brokerErr}})

		p := newProducer(t, cl, enc)
		err := p.ProduceSearchEvent(t.Context(), evt)
		assert.ErrorIs(t, err, brokerErr)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		p := newProducer(t, new(MockProducerClient), new(MockEncoder))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := p.ProduceSearchEvent(ctx, evt)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Close", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("Close").Return()
		p := newProducer(t, cl, new(MockEncoder))
		p.Close()
		cl.AssertCalled(t, "Close")
	})
}

func TestNewSearchEventsProducer(t *testing.T) {
	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = kafka.NewSearchEventsProducer(
				kafka.ProducerEncoderOpt(new(MockEncoder)),
			)
		})
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := kafka.NewSearchEventsProducer(
			kafka.ProducerClientInstanceOpt(new(MockProducerClient)),
			kafka.ProducerEncoderOpt(nil),
		)
		assert.Error(t, err)
	})
}

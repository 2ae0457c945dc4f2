package kafka

import (
	"context"
	"log/slog"
	"maps"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/niksmo/cardfinder/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.SearchEventsProducer = SearchEventsProducer{}

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A SearchEventsProducer publishes [domain.SearchEvent] keyed by username,
// so events of one user stay ordered within a partition.
type SearchEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewSearchEventsProducer(
	opts ...ProducerOpt,
) (SearchEventsProducer, error) {
	const op = "NewSearchEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return SearchEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "SearchEventsProducer"
	return SearchEventsProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p SearchEventsProducer) Close() {
	p.producer.close()
}

func (p SearchEventsProducer) ProduceSearchEvent(
	ctx context.Context, evt domain.SearchEvent,
) error {
	const op = "ProduceSearchEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p SearchEventsProducer) createRecord(
	evt domain.SearchEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(evt)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.Username), Value: b}, nil
}

func (SearchEventsProducer) toSchema(
	v domain.SearchEvent,
) (s schema.CardSearchEventV1) {
	s.Username = v.Username
	s.Query = maps.Clone(map[string]string(v.Query))
	if s.Query == nil {
		s.Query = map[string]string{}
	}
	s.Outcome = string(v.Outcome)
	s.FailureKind = v.FailureKind
	s.ResultCount = v.ResultCount
	s.OccurredAt = v.OccurredAt
	return
}

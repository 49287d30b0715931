package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.OrderLinesProducer = (*OrderLinesProducer)(nil)

// An OrderLinesProducer produces one record per order line keyed by
// product id.
type OrderLinesProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewOrderLinesProducer(opts ...ProducerOpt) (OrderLinesProducer, error) {
	const op = "NewOrderLinesProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return OrderLinesProducer{}, opErr(err, op)
		}
	}

	return OrderLinesProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "OrderLinesProducer",
	}, nil
}

func (p OrderLinesProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p OrderLinesProducer) ProduceOrderLines(
	ctx context.Context, lines []domain.OrderLine,
) error {
	const op = "ProduceOrderLines"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs, err := p.createRecords(lines)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p OrderLinesProducer) createRecords(
	lines []domain.OrderLine,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	for _, line := range lines {
		s := p.toSchema(line)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(productKey(s.ProductID)), Value: b}
		rs = append(rs, r)
	}
	return rs, nil
}

func (OrderLinesProducer) toSchema(v domain.OrderLine) schema.OrderLineV1 {
	return orderLineToSchemaV1(v)
}

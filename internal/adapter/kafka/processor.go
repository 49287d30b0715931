package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ProductDemandProcessor = (*ProductDemandProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderLineCodec used for serde [schema.OrderLineV1]
type orderLineCodec struct {
	serde Serde
}

func newOrderLineCodec(s Serde) orderLineCodec {
	return orderLineCodec{s}
}

func (c orderLineCodec) Encode(v any) ([]byte, error) {
	const op = "orderLineCodec.Encode"
	if _, ok := v.(schema.OrderLineV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderLineCodec) Decode(data []byte) (any, error) {
	const op = "orderLineCodec.Decode"
	var s schema.OrderLineV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A demandCodec used for serde [schema.ProductDemandV1] table values.
type demandCodec struct {
	plain schema.Plain
}

func newDemandCodec() demandCodec {
	return demandCodec{schema.NewPlain(schema.ProductDemandV1Avro())}
}

func (c demandCodec) Encode(v any) ([]byte, error) {
	const op = "demandCodec.Encode"
	if _, ok := v.(schema.ProductDemandV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.plain.Encode(v)
}

func (c demandCodec) Decode(data []byte) (any, error) {
	const op = "demandCodec.Decode"
	var s schema.ProductDemandV1
	if err := c.plain.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A ProductDemandProcessor aggregates order lines from the stream topic
// into per-product demand in its group table.
type ProductDemandProcessor struct {
	opPrefix string
	proc     processor
}

func NewProductDemandProc(
	seedBrokers []string,
	inputStream string,
	group string,
	orderLineSerde Serde,
	opts ...goka.ProcessorOption,
) (*ProductDemandProcessor, error) {
	const op = "NewProductDemandProcessor"

	p := &ProductDemandProcessor{opPrefix: "ProductDemandProcessor"}

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(inputStream),
			newOrderLineCodec(orderLineSerde),
			p.processFn,
		),
		goka.Persist(newDemandCodec()),
	)

	opts = append([]goka.ProcessorOption{withNoLogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(seedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return p, nil
}

func (p *ProductDemandProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ProductDemandProcessor) Close() {
	p.proc.close()
}

func (p *ProductDemandProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	line, ok := msg.(schema.OrderLineV1)
	if !ok {
		return
	}
	log := slog.With("op", makeOp(p.opPrefix, op), "productID", line.ProductID)

	var d schema.ProductDemandV1
	if v, ok := ctx.Value().(schema.ProductDemandV1); ok {
		d = v
	}
	d.ProductID = line.ProductID
	d.Quantity += line.Quantity
	d.Lines++

	ctx.SetValue(d)
	log.Debug("demand updated", "quantity", d.Quantity, "lines", d.Lines)
}

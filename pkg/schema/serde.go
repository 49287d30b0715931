package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// A SchemaIdentifier returns the registry id of a schema under the subject,
// registering it when needed.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (int, error)
}

// A registrySerde frames Avro values with the schema registry header.
type registrySerde struct {
	srSerde *sr.Serde
}

func (s registrySerde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s registrySerde) Decode(data []byte, v any) error {
	return s.srSerde.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

// NewSerdeOrderLineV1 registers [OrderLineSchemaTextV1] under the subject
// and returns its serde. Both SubjectOpt and SchemaIdentifierOpt are
// required.
func NewSerdeOrderLineV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeOrderLineV1"

	s, err := newRegistrySerde[OrderLineV1](ctx, OrderLineSchemaTextV1, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func newRegistrySerde[T any](
	ctx context.Context, schemaText string, opts []Opt,
) (registrySerde, error) {
	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return registrySerde{}, err
		}
	}
	if so.subject == "" || so.si == nil {
		return registrySerde{}, ErrTooFewOpts
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return registrySerde{}, err
	}
	plain := NewPlain(avroSchema)

	id, err := so.si.DetermineID(ctx, so.subject, schemaText)
	if err != nil {
		return registrySerde{}, err
	}

	var zero T
	srSerde := new(sr.Serde)
	srSerde.Register(id, zero, sr.EncodeFn(plain.Encode), sr.DecodeFn(plain.Decode))
	return registrySerde{srSerde}, nil
}

var _ SchemaIdentifier = (*RegistryIdentifier)(nil)

// A RegistryIdentifier registers Avro schemas in the schema registry.
// Registering an already known schema returns its existing id.
type RegistryIdentifier struct {
	client *sr.Client
}

func NewRegistryIdentifier(urls ...string) (*RegistryIdentifier, error) {
	const op = "NewRegistryIdentifier"

	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: no schema registry urls", op)
	}

	client, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RegistryIdentifier{client}, nil
}

func (ri *RegistryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := ri.client.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

package schema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeOrderLineV1(t *testing.T) {
	subject := "order-lines-value"

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeOrderLineV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeOrderLineV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeOrderLineV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("RegistryError", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.OrderLineSchemaTextV1,
		).Return(0, errors.New("registry unavailable"))

		_, err := schema.NewSerdeOrderLineV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.Error(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.OrderLineSchemaTextV1,
		).Return(3, nil)

		serde, err := schema.NewSerdeOrderLineV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		line := schema.OrderLineV1{
			EventID:   "e-1",
			OrderID:   "o-1",
			ProductID: 42,
			Quantity:  3,
			Phone:     "79000000001",
			CreatedAt: time.UnixMilli(1740830400123).UTC(),
		}

		data, err := serde.Encode(line)
		require.NoError(t, err)
		require.Greater(t, len(data), 5)
		assert.Equal(t, byte(0), data[0], "registry magic byte")

		var got schema.OrderLineV1
		require.NoError(t, serde.Decode(data, &got))
		assert.Equal(t, line.EventID, got.EventID)
		assert.Equal(t, line.OrderID, got.OrderID)
		assert.Equal(t, line.ProductID, got.ProductID)
		assert.Equal(t, line.Quantity, got.Quantity)
		assert.Equal(t, line.Phone, got.Phone)
		assert.True(t, line.CreatedAt.Equal(got.CreatedAt))
	})
}

func TestProductDemandV1(t *testing.T) {
	plain := schema.NewPlain(schema.ProductDemandV1Avro())

	v := schema.ProductDemandV1{ProductID: 7, Quantity: 12, Lines: 4}
	data, err := plain.Encode(v)
	require.NoError(t, err)

	var got schema.ProductDemandV1
	require.NoError(t, plain.Decode(data, &got))
	assert.Equal(t, v, got)
}

func TestOrderLineV1Avro(t *testing.T) {
	assert.NotPanics(t, func() { schema.OrderLineV1Avro() })
}

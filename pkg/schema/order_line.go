package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const OrderLineSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "order_line",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "quantity", "type": "long"},
		{"name": "phone", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// ProductDemandSchemaTextV1 is the group table value of the demand
// processor. It is not registered in the schema registry.
const ProductDemandSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "product_demand",
	"fields": [
		{"name": "product_id", "type": "long"},
		{"name": "quantity", "type": "long"},
		{"name": "lines", "type": "long"}
	]
}`

type (
	OrderLineV1 struct {
		EventID   string    `avro:"event_id"`
		OrderID   string    `avro:"order_id"`
		ProductID int       `avro:"product_id"`
		Quantity  int       `avro:"quantity"`
		Phone     string    `avro:"phone"`
		CreatedAt time.Time `avro:"created_at"`
	}

	ProductDemandV1 struct {
		ProductID int `avro:"product_id"`
		Quantity  int `avro:"quantity"`
		Lines     int `avro:"lines"`
	}
)

func OrderLineV1Avro() avro.Schema {
	return avro.MustParse(OrderLineSchemaTextV1)
}

func ProductDemandV1Avro() avro.Schema {
	return avro.MustParse(ProductDemandSchemaTextV1)
}

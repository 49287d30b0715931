package schema

import "github.com/hamba/avro/v2"

// A Plain codec reads and writes bare Avro, without the schema registry
// header. It suits values that never leave the service, like group tables.
type Plain struct {
	avroSchema avro.Schema
}

func NewPlain(s avro.Schema) Plain {
	return Plain{s}
}

func (p Plain) Encode(v any) ([]byte, error) {
	return avro.Marshal(p.avroSchema, v)
}

func (p Plain) Decode(data []byte, v any) error {
	return avro.Unmarshal(p.avroSchema, data, v)
}

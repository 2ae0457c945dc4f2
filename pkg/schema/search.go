package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const CardSearchEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "cardfinder",
	"name": "card_search_event",
	"fields" : [
		{"name": "username", "type": "string"},
		{"name": "query", "type": {"type": "map", "values": "string"}},
		{"name": "outcome", "type": "string"},
		{"name": "failure_kind", "type": "string", "default": ""},
		{"name": "result_count", "type": "int"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type CardSearchEventV1 struct {
	Username    string            `avro:"username"`
	Query       map[string]string `avro:"query"`
	Outcome     string            `avro:"outcome"`
	FailureKind string            `avro:"failure_kind"`
	ResultCount int               `avro:"result_count"`
	OccurredAt  time.Time         `avro:"occurred_at"`
}

// CardSearchEventV1Avro panics if the schema text is broken.
func CardSearchEventV1Avro() avro.Schema {
	return avro.MustParse(CardSearchEventSchemaTextV1)
}

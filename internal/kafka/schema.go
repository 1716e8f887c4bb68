package kafka

// MessageSchema is an Avro serialized Message.
const MessageSchema = `
{
	"type": "record",
	"name": "Message",
	"namespace": "walletauth.messages",
	"fields": [
		{"name": "delivery", "type": {"type": "enum", "name": "DeliveryMethod", "symbols": ["email", "sms"]}},
		{"name": "address", "type": "string"},
		{"name": "subject", "type": "string", "default": ""},
		{"name": "content", "type": "string"},
		{"name": "expires_at", "type": {"type": "long", "logicalType": "timestamp-micros"}},
		{"name": "delivery_attempts", "type": "int", "default": 0}
	]
}
`

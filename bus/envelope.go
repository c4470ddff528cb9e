package bus

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// maxEnvelopeSize bounds one datagram on the ingress socket.
const maxEnvelopeSize = 64 << 10

// Envelope is one message on the bus. The payload is CBOR so producers in
// other processes can publish without sharing Go types.
type Envelope struct {
	Topic    string          `cbor:"topic"`
	MonoTime int64           `cbor:"monoTime"`
	Valid    bool            `cbor:"valid"`
	Payload  cbor.RawMessage `cbor:"payload"`
}

var monoStart = time.Now()

// NewEnvelope encodes v as the payload of a valid message on topic.
func NewEnvelope(topic string, v any) (Envelope, error) {
	payload, err := cbor.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return Envelope{
		Topic:    topic,
		MonoTime: int64(time.Since(monoStart)),
		Valid:    true,
		Payload:  payload,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := cbor.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Topic, err)
	}
	return nil
}

// Marshal encodes the whole envelope for the wire.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	if len(data) > maxEnvelopeSize {
		return nil, fmt.Errorf("encode envelope: %d bytes exceeds limit %d", len(data), maxEnvelopeSize)
	}
	return data, nil
}

// UnmarshalEnvelope decodes one wire envelope.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Topic == "" {
		return Envelope{}, fmt.Errorf("decode envelope: empty topic")
	}
	return e, nil
}

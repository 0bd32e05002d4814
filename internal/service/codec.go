package service

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// jsonCodec lets Connect carry plain Go structs. It replaces Connect's
// built-in "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

// Ensure jsonCodec implements connect.Codec
var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}

// WithJSON is the option every familysync handler and client is built with.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

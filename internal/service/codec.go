package service

import (
	"encoding/json"
	"fmt"
)

// codecName replaces connect's built-in "json" codec, which only accepts
// protobuf messages.
const codecName = "json"

// JSONCodec marshals plain Go request and response structs with encoding/json.
type JSONCodec struct{}

func (JSONCodec) Name() string { return codecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}

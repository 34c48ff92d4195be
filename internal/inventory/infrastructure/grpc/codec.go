package grpc

import "encoding/json"

// jsonCodec carries the service's messages as JSON instead of protobuf. Both ends force it,
// so no content-subtype negotiation happens.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

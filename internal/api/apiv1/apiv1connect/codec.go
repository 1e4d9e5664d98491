// Package apiv1connect binds the ytbeats.v1 services to Connect handlers and clients.
package apiv1connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec encodes the plain Go messages of package apiv1 as JSON.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON selects the JSON codec. Handlers and clients built by this
// package apply it already.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

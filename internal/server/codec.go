package server

import (
	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the measurement service messages.
// Clients select it with grpc.CallContentSubtype(CodecName).
const CodecName = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Timestamps keep sub-second precision on the wire.
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("server: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("server: CBOR decoder initialization failed: " + err.Error())
	}

	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}

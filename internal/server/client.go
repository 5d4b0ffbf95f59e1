package server

import (
	"context"

	"google.golang.org/grpc"
)

// MeasurementProducerClient is the client API of the measurement service.
type MeasurementProducerClient interface {
	CreateAccumulatorValue(ctx context.Context, in *CreateAccumulatorValueRequest, opts ...grpc.CallOption) (*CreateAccumulatorValueResponse, error)
	CreateAnalogValue(ctx context.Context, in *CreateAnalogValueRequest, opts ...grpc.CallOption) (*CreateAnalogValueResponse, error)
	CreateDiscreteValue(ctx context.Context, in *CreateDiscreteValueRequest, opts ...grpc.CallOption) (*CreateDiscreteValueResponse, error)
}

type measurementProducerClient struct {
	cc grpc.ClientConnInterface
}

// NewMeasurementProducerClient returns a client that encodes every call with
// the CBOR codec.
func NewMeasurementProducerClient(cc grpc.ClientConnInterface) MeasurementProducerClient {
	return &measurementProducerClient{cc: cc}
}

func (c *measurementProducerClient) CreateAccumulatorValue(ctx context.Context, in *CreateAccumulatorValueRequest, opts ...grpc.CallOption) (*CreateAccumulatorValueResponse, error) {
	out := new(CreateAccumulatorValueResponse)
	if err := c.invoke(ctx, "CreateAccumulatorValue", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *measurementProducerClient) CreateAnalogValue(ctx context.Context, in *CreateAnalogValueRequest, opts ...grpc.CallOption) (*CreateAnalogValueResponse, error) {
	out := new(CreateAnalogValueResponse)
	if err := c.invoke(ctx, "CreateAnalogValue", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *measurementProducerClient) CreateDiscreteValue(ctx context.Context, in *CreateDiscreteValueRequest, opts ...grpc.CallOption) (*CreateDiscreteValueResponse, error) {
	out := new(CreateDiscreteValueResponse)
	if err := c.invoke(ctx, "CreateDiscreteValue", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *measurementProducerClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

package server

import (
	"context"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/ingest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified name of the measurement service.
const ServiceName = "measd.MeasurementProducer"

// MeasurementProducerServer is the server API of the measurement service.
type MeasurementProducerServer interface {
	CreateAccumulatorValue(context.Context, *CreateAccumulatorValueRequest) (*CreateAccumulatorValueResponse, error)
	CreateAnalogValue(context.Context, *CreateAnalogValueRequest) (*CreateAnalogValueResponse, error)
	CreateDiscreteValue(context.Context, *CreateDiscreteValueRequest) (*CreateDiscreteValueResponse, error)
}

// Ingester admits one converted record; *ingest.Coordinator implements it.
type Ingester interface {
	Ingest(ctx context.Context, in ingest.Converter) error
}

var MeasurementProducerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeasurementProducerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateAccumulatorValue",
			Handler:    unaryHandler("CreateAccumulatorValue", MeasurementProducerServer.CreateAccumulatorValue),
		},
		{
			MethodName: "CreateAnalogValue",
			Handler:    unaryHandler("CreateAnalogValue", MeasurementProducerServer.CreateAnalogValue),
		},
		{
			MethodName: "CreateDiscreteValue",
			Handler:    unaryHandler("CreateDiscreteValue", MeasurementProducerServer.CreateDiscreteValue),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "measd/measurement_producer",
}

func RegisterMeasurementProducerServer(s grpc.ServiceRegistrar, srv MeasurementProducerServer) {
	s.RegisterService(&MeasurementProducerServiceDesc, srv)
}

// unaryHandler adapts a typed service method to grpc's method handler shape.
func unaryHandler[Req, Resp any](
	method string,
	call func(MeasurementProducerServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MeasurementProducerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MeasurementProducerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type producer struct {
	ingester Ingester
}

// NewMeasurementProducer returns the service implementation backed by ingester.
func NewMeasurementProducer(ingester Ingester) MeasurementProducerServer {
	return &producer{ingester: ingester}
}

func (p *producer) CreateAccumulatorValue(ctx context.Context, req *CreateAccumulatorValueRequest) (*CreateAccumulatorValueResponse, error) {
	if err := p.ingest(ctx, req); err != nil {
		return nil, err
	}
	return &CreateAccumulatorValueResponse{}, nil
}

func (p *producer) CreateAnalogValue(ctx context.Context, req *CreateAnalogValueRequest) (*CreateAnalogValueResponse, error) {
	if err := p.ingest(ctx, req); err != nil {
		return nil, err
	}
	return &CreateAnalogValueResponse{}, nil
}

func (p *producer) CreateDiscreteValue(ctx context.Context, req *CreateDiscreteValueRequest) (*CreateDiscreteValueResponse, error) {
	if err := p.ingest(ctx, req); err != nil {
		return nil, err
	}
	return &CreateDiscreteValueResponse{}, nil
}

func (p *producer) ingest(ctx context.Context, in ingest.Converter) error {
	if err := p.ingester.Ingest(ctx, in); err != nil {
		return status.Error(statusCode(err), err.Error())
	}
	return nil
}

// statusCode maps the outermost ingest error code onto a gRPC code.
func statusCode(err error) codes.Code {
	code, ok := errors.CodeOf(err)
	if !ok {
		return codes.Unknown
	}

	switch code {
	case ingest.ErrConversion:
		return codes.InvalidArgument
	case ingest.ErrPersistence:
		return codes.Unavailable
	case ingest.ErrBufferInvariant:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

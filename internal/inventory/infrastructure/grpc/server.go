package grpc

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	booking "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// Previewer checks a cart against current stock without changing it.
type Previewer interface {
	Preview(ctx context.Context, cart booking.Cart) (booking.Result, error)
}

type Server struct {
	log     *slog.Logger
	preview Previewer
	tracer  trace.Tracer
}

func NewServer(log *slog.Logger, preview Previewer) *Server {
	return &Server{log: log, preview: preview, tracer: otel.Tracer("inventory-grpc")}
}

func (s *Server) CheckStock(ctx context.Context, req *CheckStockRequest) (*CheckStockResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CheckStock")
	defer span.End()

	cart := booking.Cart{Lines: make([]booking.Line, 0, len(req.Lines))}
	for _, l := range req.Lines {
		cart.Lines = append(cart.Lines, booking.Line{ProductID: l.ProductID, Quantity: int(l.Quantity)})
	}
	res, err := s.preview.Preview(ctx, cart)
	if err != nil {
		if domain.IsValidation(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.log.Error("check stock failed", "err", err)
		return nil, status.Error(codes.Internal, "check stock failed")
	}

	resp := &CheckStockResponse{Available: true, Lines: make([]LineAvailability, 0, len(res.Outcomes))}
	for _, o := range res.Outcomes {
		if o.Status != booking.StatusAvailable {
			resp.Available = false
		}
		resp.Lines = append(resp.Lines, LineAvailability{
			ProductID: o.ProductID,
			Quantity:  int32(o.Quantity),
			Status:    string(o.Status),
			Available: int32(o.Available),
		})
	}
	return resp, nil
}

// NewGRPCServer returns a grpc.Server with the inventory service and its codec registered.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(jsonCodec{}))
	gs := grpc.NewServer(opts...)
	RegisterInventoryServiceServer(gs, srv)
	return gs
}

func Run(addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := NewGRPCServer(srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			srv.log.Error("grpc server stopped", "err", err)
		}
	}()
	return gs, nil
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName      = "marketplace.inventory.v1.InventoryService"
	checkStockMethod = "/" + serviceName + "/CheckStock"
)

type StockLine struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type CheckStockRequest struct {
	Lines []StockLine `json:"lines"`
}

type LineAvailability struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Status    string `json:"status"`
	Available int32  `json:"available"`
}

// CheckStockResponse is Available only when every line could be booked as sent.
type CheckStockResponse struct {
	Available bool               `json:"available"`
	Lines     []LineAvailability `json:"lines"`
}

type InventoryServiceServer interface {
	CheckStock(ctx context.Context, req *CheckStockRequest) (*CheckStockResponse, error)
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

var inventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckStock", Handler: checkStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/inventory/v1/inventory.proto",
}

func checkStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckStockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).CheckStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkStockMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).CheckStock(ctx, req.(*CheckStockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	booking "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
)

type InventoryClient struct {
	log  *slog.Logger
	conn *grpc.ClientConn
}

func NewInventoryClient(log *slog.Logger, addr string, opts ...grpc.DialOption) (*InventoryClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &InventoryClient{log: log, conn: conn}, nil
}

func (c *InventoryClient) CheckStock(ctx context.Context, lines []booking.Line) (*CheckStockResponse, error) {
	req := &CheckStockRequest{Lines: make([]StockLine, 0, len(lines))}
	for _, l := range lines {
		req.Lines = append(req.Lines, StockLine{ProductID: l.ProductID, Quantity: int32(l.Quantity)})
	}
	resp := new(CheckStockResponse)
	if err := c.conn.Invoke(ctx, checkStockMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *InventoryClient) Close() error {
	return c.conn.Close()
}

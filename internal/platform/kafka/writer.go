package kafka

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns a producer that hashes on the message key, so messages for one product
// or one storekeeper keep their order. Topic is set per message.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// Brokers splits a comma separated broker list.
func Brokers(addr string) []string {
	var out []string
	for _, b := range strings.Split(addr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

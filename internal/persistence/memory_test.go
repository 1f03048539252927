package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

func TestMemorySink_ArchiveAndListBySession(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	p := model.ExitedPosition{
		Instrument: model.NewPerpetual("ETH", "USDT"), Direction: model.Long,
		Qty: decimal.NewFromInt(1), AvgEntryPrice: decimal.NewFromInt(2000),
		ExitPrice: decimal.NewFromInt(2090), RealizedPnL: decimal.NewFromInt(90),
		ExitReason: model.OffsetFill, OpenTs: 1, CloseTs: 2,
	}
	if err := s.Archive(ctx, "session-a", p); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if err := s.Archive(ctx, "session-b", p); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	out, err := s.ListBySession(ctx, "session-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 1 || !out[0].RealizedPnL.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected one archived position with pnl 90, got %+v", out)
	}

	empty, err := s.ListBySession(ctx, "nonexistent")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty slice for unknown session, got %+v err=%v", empty, err)
	}
}

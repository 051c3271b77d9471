package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/priceops/dealwatch/internal/model"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, item model.Item, c model.DealCandidate) error {
	n.calls++
	return n.err
}

func TestFanout_DeliversToAllChannels(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{}
	f := NewFanout(nil, a, b)

	if err := f.Notify(context.Background(), model.Item{ID: "B0ABC123"}, candidate(10.00)); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}

func TestFanout_FailingChannelDoesNotStopOthers(t *testing.T) {
	broken := &recordingNotifier{err: errors.New("webhook down")}
	healthy := &recordingNotifier{}
	f := NewFanout(nil, broken, healthy)

	err := f.Notify(context.Background(), model.Item{ID: "B0ABC123"}, candidate(10.00))
	if err == nil {
		t.Fatalf("expected error from failing channel")
	}
	if healthy.calls != 1 {
		t.Errorf("healthy channel skipped after failure")
	}
}

func TestFormatMessage(t *testing.T) {
	detected := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item model.Item
		cand model.DealCandidate
		want []string
	}{
		{
			name: "price drop",
			item: model.Item{ID: "B0ABC123", Title: "Widget Pro"},
			cand: model.DealCandidate{
				ItemID: "B0ABC123", Type: model.DealPriceDrop,
				CurrentPrice: 85.00, ReferencePrice: 100.00, DropPercent: 15.0,
				DetectedAt: detected,
			},
			want: []string{"Price drop", "Widget Pro", "$85.00", "15.0% below $100.00"},
		},
		{
			name: "margin opportunity",
			item: model.Item{ID: "B0ABC123", Title: "Widget Pro"},
			cand: model.DealCandidate{
				ItemID: "B0ABC123", Type: model.DealMarginOpportunity,
				CurrentPrice: 50.00, ReferencePrice: 20.00,
				EstimatedProfit: 15.00, EstimatedROI: 75.0,
				DetectedAt: detected,
			},
			want: []string{"Margin opportunity", "buy at $20.00", "$15.00", "75.0% ROI"},
		},
		{
			name: "below average names its window",
			item: model.Item{ID: "B0ABC123", Title: "Widget Pro"},
			cand: model.DealCandidate{
				ItemID: "B0ABC123", Type: model.DealBelowAverage,
				CurrentPrice: 10.00, ReferencePrice: 12.00, DropPercent: 16.7, Window: "30d",
				DetectedAt: detected,
			},
			want: []string{"Below average", "30d average $12.00"},
		},
		{
			name: "falls back to item id without title or label",
			item: model.Item{ID: "B0ABC123"},
			cand: model.DealCandidate{
				ItemID: "B0ABC123", Type: model.DealAllTimeLow,
				CurrentPrice: 9.99, ReferencePrice: 10.50, DropPercent: 4.9,
				DetectedAt: detected,
			},
			want: []string{"All-time low", "B0ABC123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FormatMessage(tt.item, tt.cand)
			for _, fragment := range tt.want {
				if !strings.Contains(msg, fragment) {
					t.Errorf("message %q missing %q", msg, fragment)
				}
			}
		})
	}
}

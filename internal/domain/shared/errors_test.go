package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "wrapped_validation", err: fmt.Errorf("place bid: %w", ErrInvalidAmount), want: KindValidation},
		{name: "not_found", err: ErrAuctionNotFound, want: KindNotFound},
		{name: "conflict", err: fmt.Errorf("x: %w", ErrBidTooLow), want: KindConflict},
		{name: "busy", err: ErrConcurrentModification, want: KindTransient},
		{name: "deadline", err: fmt.Errorf("save: %w", context.DeadlineExceeded), want: KindTransient},
		{name: "unknown", err: errors.New("boom"), want: KindInternal},
		{name: "nil", err: nil, want: KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

package workflows

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/mocks"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

func TestBuildPlacementWorkflowID_IsStableForIdempotencyKeys(t *testing.T) {
	cmd := salestypes.PlaceOrderCommand{IdempotencyKey: " till-1 "}
	first := buildPlacementWorkflowID(cmd, "trace-a")
	second := buildPlacementWorkflowID(cmd, "trace-b")
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "order-placement-idem-"))

	anonymous := salestypes.PlaceOrderCommand{}
	assert.NotEqual(t, buildPlacementWorkflowID(anonymous, "t"), buildPlacementWorkflowID(anonymous, "t"))
}

func TestInlineDeliveryScheduler_DeliversOncePerOrder(t *testing.T) {
	var mu sync.Mutex
	delivered := map[string]int{}
	done := make(chan struct{}, 4)
	scheduler := NewInlineDeliveryScheduler(func(_ context.Context, orderID string) error {
		mu.Lock()
		delivered[orderID]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, nil)

	require.NoError(t, scheduler.ScheduleDelivery(context.Background(), "o-1", 10*time.Millisecond))
	require.NoError(t, scheduler.ScheduleDelivery(context.Background(), "o-1", 10*time.Millisecond))
	require.NoError(t, scheduler.ScheduleDelivery(context.Background(), "o-2", 10*time.Millisecond))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("delivery was not triggered")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"o-1": 1, "o-2": 1}, delivered)
}

func TestInlineDeliveryScheduler_StopCancelsPending(t *testing.T) {
	scheduler := NewInlineDeliveryScheduler(func(context.Context, string) error {
		t.Error("delivery should have been cancelled")
		return nil
	}, nil)
	require.NoError(t, scheduler.ScheduleDelivery(context.Background(), "o-1", time.Hour))
	assert.Equal(t, 1, scheduler.Pending())
	scheduler.Stop()
	assert.Equal(t, 0, scheduler.Pending())
}

func TestTemporalPlacement_UnreachableClusterIsTransient(t *testing.T) {
	temporalClient := &mocks.Client{}
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewUnavailable("connection refused"))
	placement := NewTemporalPlacement(temporalClient)

	_, err := placement.PlaceOrder(context.Background(), salestypes.PlaceOrderCommand{CashierID: "c1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	temporalClient.AssertExpectations(t)
}

func TestTemporalPlacement_ResultDeadlineIsTransient(t *testing.T) {
	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)
	temporalClient := &mocks.Client{}
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(run, nil)
	placement := NewTemporalPlacement(temporalClient)

	_, err := placement.PlaceOrder(context.Background(), salestypes.PlaceOrderCommand{CashierID: "c1"})

	assert.ErrorIs(t, err, domain.ErrTransient)
}

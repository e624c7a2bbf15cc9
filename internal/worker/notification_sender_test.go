package worker

import (
	"context"
	"testing"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
	testhelpers "github.com/craftlane/fulfillment/internal/test"
)

func TestNotificationSenderDeliversPendingBatch(t *testing.T) {
	facade := &testhelpers.SenderFacadeStub{
		Pending: [][]model.Notification{{
			{ID: 1, Status: model.NotificationStatusPending},
			{ID: 2, Status: model.NotificationStatusPending},
		}},
	}

	sender := NewNotificationSender(facade, 5*time.Millisecond, 8, 2, discardLogger())
	sender.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for {
		facade.Lock()
		done := len(facade.Delivered) == 2
		facade.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for deliveries")
		}
		time.Sleep(5 * time.Millisecond)
	}
	sender.Stop()

	facade.Lock()
	defer facade.Unlock()
	if len(facade.Retried) != 0 {
		t.Fatalf("no retries expected, got %v", facade.Retried)
	}
}

func TestNotificationSenderRetriesFailedBatch(t *testing.T) {
	facade := &testhelpers.SenderFacadeStub{
		Retryable: [][]model.Notification{{
			{ID: 7, Status: model.NotificationStatusFailed, RetryCount: 1},
		}},
	}

	sender := NewNotificationSender(facade, 5*time.Millisecond, 8, 1, discardLogger())
	sender.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for {
		facade.Lock()
		done := len(facade.Retried) == 1
		facade.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for retry")
		}
		time.Sleep(5 * time.Millisecond)
	}
	sender.Stop()

	facade.Lock()
	defer facade.Unlock()
	if facade.Retried[0] != 7 {
		t.Fatalf("unexpected retry target %v", facade.Retried)
	}
}

func TestNotificationSenderStopsCleanlyWithoutWork(t *testing.T) {
	facade := &testhelpers.SenderFacadeStub{}
	sender := NewNotificationSender(facade, 5*time.Millisecond, 4, 3, discardLogger())

	sender.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	sender.Stop()
}

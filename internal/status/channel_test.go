package status

import (
	"reflect"
	"testing"

	"easysave/internal/model"
)

func TestChannelEmpty(t *testing.T) {
	ch := NewChannel()
	if _, ok := ch.Current(); ok {
		t.Fatalf("expected no current status on a fresh channel")
	}
}

func TestChannelLastWriteWins(t *testing.T) {
	ch := NewChannel()
	ch.Publish(model.OperationStatus{Phase: model.PhasePending, Message: "Approving..."})
	ch.Publish(model.OperationStatus{Phase: model.PhaseSuccess, Message: "Done"})

	got, ok := ch.Current()
	if !ok {
		t.Fatalf("expected a current status")
	}
	want := model.OperationStatus{Phase: model.PhaseSuccess, Message: "Done"}
	if got != want {
		t.Fatalf("status mismatch: %+v != %+v", got, want)
	}
}

func TestChannelObserverOrder(t *testing.T) {
	ch := NewChannel()
	var seen []model.OperationStatus
	ch.OnPublish(func(s model.OperationStatus) { seen = append(seen, s) })

	updates := []model.OperationStatus{
		{Phase: model.PhasePending, Message: "step 1"},
		{Phase: model.PhasePending, Message: "step 2"},
		{Phase: model.PhaseSuccess, Message: "done"},
	}
	for _, s := range updates {
		ch.Publish(s)
	}

	if !reflect.DeepEqual(seen, updates) {
		t.Fatalf("observed order mismatch: %+v != %+v", seen, updates)
	}
}

package kafka

import (
	"testing"

	"github.com/neritic/functiond/events"
)

func TestFakeAsyncProducerIsPublisher(t *testing.T) {
	var p events.Publisher = NewFakeAsyncProducer(nil)
	p.Publish(events.GEM{Action: "execute"})
	if p.Reconnect() {
		t.Error("fake producer should never ask for reconnect")
	}
}

func TestStringInSlice(t *testing.T) {
	if !stringInSlice("execute", []string{"create", "execute"}) {
		t.Error("expected match")
	}
	if stringInSlice("delete", []string{"create", "execute"}) {
		t.Error("did not expect match")
	}
}

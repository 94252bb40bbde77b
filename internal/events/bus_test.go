package events

import "testing"

func TestSubscribePublish(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsub := b.Subscribe(EventBoardUpdate, 1)
	defer unsub()

	b.Publish(EventBoardUpdate, "payload")

	select {
	case msg := <-ch:
		if msg != "payload" {
			t.Errorf("got %v, want payload", msg)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsub := b.Subscribe(EventBoardUpdate, 1)
	defer unsub()

	// Second publish overflows the buffer; it must drop, not block.
	b.Publish(EventBoardUpdate, 1)
	b.Publish(EventBoardUpdate, 2)
}

func TestPublishOnlyReachesMatchingEvent(t *testing.T) {
	b := NewBus()
	defer b.Close()

	boardCh, unsub1 := b.Subscribe(EventBoardUpdate, 1)
	defer unsub1()
	detailCh, unsub2 := b.Subscribe(EventDetailUpdate, 1)
	defer unsub2()

	b.Publish(EventBoardUpdate, "row")

	if len(boardCh) != 1 {
		t.Error("board subscriber missed its event")
	}
	if len(detailCh) != 0 {
		t.Error("detail subscriber received a board event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsub := b.Subscribe(EventStreamState, 1)
	unsub()

	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(EventStreamState, "x")
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	b := NewBus()
	ch, unsub := b.Subscribe(EventCredential, 1)
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after bus close")
	}
	// Both are safe after close.
	b.Publish(EventCredential, "tok")
	unsub()

	ch2, _ := b.Subscribe(EventCredential, 1)
	if _, ok := <-ch2; ok {
		t.Error("subscribe on closed bus must return a closed channel")
	}
}

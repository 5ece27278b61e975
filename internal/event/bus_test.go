package event

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BusSuite struct {
	suite.Suite
	bus *Bus
}

func (s *BusSuite) SetupTest() {
	s.bus = NewBus(4, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestBusSuite(t *testing.T) {
	suite.Run(t, new(BusSuite))
}

func signupEvent(activity, email string, count int) Event {
	return Event{
		Kind:              KindSignup,
		Activity:          activity,
		Email:             email,
		ParticipantsCount: count,
		MaxParticipants:   12,
	}
}

func receiveOne(s *BusSuite, sub *Subscription) Event {
	select {
	case e, ok := <-sub.Events():
		s.Require().True(ok, "subscription closed unexpectedly")
		return e
	case <-time.After(time.Second):
		s.Require().FailNow("timed out waiting for event")
		return Event{}
	}
}

func (s *BusSuite) TestDeliversToAllSubscribers() {
	a := s.bus.Subscribe()
	b := s.bus.Subscribe()
	defer s.bus.Unsubscribe(a)
	defer s.bus.Unsubscribe(b)

	published := signupEvent("Chess Club", "a@x.edu", 1)
	s.bus.Publish(published)

	s.Equal(published, receiveOne(s, a))
	s.Equal(published, receiveOne(s, b))
}

func (s *BusSuite) TestPreservesPublishOrderPerSubscriber() {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	first := signupEvent("Chess Club", "a@x.edu", 1)
	second := signupEvent("Chess Club", "b@x.edu", 2)
	s.bus.Publish(first)
	s.bus.Publish(second)

	s.Equal(first, receiveOne(s, sub))
	s.Equal(second, receiveOne(s, sub))
}

func (s *BusSuite) TestLateSubscriberNeverSeesPastEvents() {
	s.bus.Publish(signupEvent("Chess Club", "a@x.edu", 1))

	late := s.bus.Subscribe()
	defer s.bus.Unsubscribe(late)

	fresh := signupEvent("Chess Club", "b@x.edu", 2)
	s.bus.Publish(fresh)

	s.Equal(fresh, receiveOne(s, late))
	select {
	case e := <-late.Events():
		s.Failf("unexpected replayed event", "%+v", e)
	default:
	}
}

func (s *BusSuite) TestOverflowDisconnectsOnlyTheLaggingSubscriber() {
	stalled := s.bus.Subscribe()
	healthy := s.bus.Subscribe()
	defer s.bus.Unsubscribe(healthy)

	// Queue size is 4. The healthy subscriber drains as events arrive; the
	// stalled one never reads, so the fifth publish overflows it.
	for i := 0; i < 4; i++ {
		s.bus.Publish(signupEvent("Chess Club", "a@x.edu", i+1))
		s.Equal(i+1, receiveOne(s, healthy).ParticipantsCount)
	}
	s.bus.Publish(signupEvent("Chess Club", "a@x.edu", 5))
	s.Equal(5, receiveOne(s, healthy).ParticipantsCount)

	// The stalled subscription keeps its queued events, then closes.
	received := 0
	for range stalled.Events() {
		received++
	}
	s.Equal(4, received)

	// The healthy subscriber keeps receiving.
	s.bus.Publish(signupEvent("Chess Club", "b@x.edu", 6))
	s.Equal(6, receiveOne(s, healthy).ParticipantsCount)
}

func (s *BusSuite) TestUnsubscribeIsIdempotent() {
	sub := s.bus.Subscribe()
	s.bus.Unsubscribe(sub)
	s.bus.Unsubscribe(sub)

	_, ok := <-sub.Events()
	s.False(ok)
}

func (s *BusSuite) TestUnsubscribedReceivesNothingFurther() {
	sub := s.bus.Subscribe()
	s.bus.Unsubscribe(sub)

	s.bus.Publish(signupEvent("Chess Club", "a@x.edu", 1))

	for e := range sub.Events() {
		s.Failf("delivery after unsubscribe", "%+v", e)
	}
}

func (s *BusSuite) TestCloseEndsAllSubscriptions() {
	a := s.bus.Subscribe()
	b := s.bus.Subscribe()

	s.bus.Close()

	_, okA := <-a.Events()
	_, okB := <-b.Events()
	s.False(okA)
	s.False(okB)

	// Subscriptions opened after close are immediately closed.
	late := s.bus.Subscribe()
	_, ok := <-late.Events()
	s.False(ok)
}

func (s *BusSuite) TestConcurrentPublishAndUnsubscribe() {
	const publishers = 8
	const eventsEach = 50

	subs := make([]*Subscription, 16)
	for i := range subs {
		subs[i] = s.bus.Subscribe()
	}

	done := make(chan struct{})
	for p := 0; p < publishers; p++ {
		go func() {
			for i := 0; i < eventsEach; i++ {
				s.bus.Publish(signupEvent("Chess Club", "a@x.edu", i))
			}
			done <- struct{}{}
		}()
	}
	for _, sub := range subs {
		go s.bus.Unsubscribe(sub)
	}
	for p := 0; p < publishers; p++ {
		<-done
	}
}

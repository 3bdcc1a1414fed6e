package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/nats-io/nats.go"
)

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Publish(context.Background(), TopicProjectVisibilityChanged, ProjectVisibilityChanged{})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_Close(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
}

func TestNATSPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicProjectVisibilityChanged, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := ProjectVisibilityChanged{ProjectUUID: "u1", ProjectKey: "my-project", Visibility: model.VisibilityPrivate}
	if err := pub.Publish(context.Background(), TopicProjectVisibilityChanged, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	select {
	case msg := <-ch:
		var got ProjectVisibilityChanged
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.ProjectKey != "my-project" {
			t.Errorf("got project key=%q, want %q", got.ProjectKey, "my-project")
		}
		if got.Visibility != model.VisibilityPrivate {
			t.Errorf("got visibility=%q, want %q", got.Visibility, model.VisibilityPrivate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe("qube.>", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	for _, tc := range []struct {
		topic string
		event any
	}{
		{TopicProjectCreated, ProjectCreated{Project: &model.WireComponent{Key: "p1"}}},
		{TopicProjectVisibilityChanged, ProjectVisibilityChanged{ProjectKey: "p1", Visibility: model.VisibilityPublic}},
		{TopicOrganizationProjectVisibilityUpdated, OrganizationProjectVisibilityUpdated{OrganizationKey: "org", Visibility: model.VisibilityPrivate}},
		{TopicPermissionsIndexed, PermissionsIndexed{Authorization: &model.Authorization{ProjectUUID: "u1", AllowAnyone: true}}},
	} {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}

	for i := 0; i < 4; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Publishing after close should fail.
	err = pub.Publish(context.Background(), TopicProjectCreated, ProjectCreated{})
	if err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestNATSPublisher_BrokerDown(t *testing.T) {
	srv := startBroker(t)
	pub := newTestPublisher(t, srv.ClientURL())

	srv.Shutdown()
	deadline := time.Now().Add(5 * time.Second)
	for pub.conn.Status() == nats.CONNECTED {
		if time.Now().After(deadline) {
			t.Fatal("publisher never noticed the broker going away")
		}
		time.Sleep(10 * time.Millisecond)
	}

	err := pub.Publish(context.Background(), TopicPermissionsIndexed, PermissionsIndexed{})
	if !errors.Is(err, ErrBrokerUnavailable) {
		t.Fatalf("Publish with broker down = %v, want %v", err, ErrBrokerUnavailable)
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	url := startTestNATS(t)
	pub := newTestPublisher(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, TopicProjectCreated, ProjectCreated{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish with canceled context = %v, want %v", err, context.Canceled)
	}
}

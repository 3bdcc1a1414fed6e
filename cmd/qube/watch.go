package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

// watchTopics are the topics followed by default; --index adds the
// authorization feed.
var watchTopics = []string{
	events.TopicProjectCreated,
	events.TopicProjectVisibilityChanged,
	events.TopicOrganizationProjectVisibilityUpdated,
}

// topicEvent is a payload tagged with the topic it arrived on.
type topicEvent struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream project and organization events",
	GroupID: "components",
	Args:    cobra.NoArgs,
	// Events come from NATS directly; no server client is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("QUBE_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return errors.New("no NATS URL: pass --nats, set QUBE_NATS_URL or add one to the active remote")
		}

		topics := watchTopics
		if index, _ := cmd.Flags().GetBool("index"); index {
			topics = append(append([]string{}, watchTopics...), events.TopicPermissionsIndexed)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := subscribeAll(sub, topics)
		if err != nil {
			return err
		}
		defer cancel()

		return printEvents(ctx, cmd.OutOrStdout(), ch)
	},
}

// subscribeAll merges the given topics into one channel. The returned
// cancel unsubscribes every topic.
func subscribeAll(sub events.Subscriber, topics []string) (<-chan topicEvent, func(), error) {
	out := make(chan topicEvent, 64)
	done := make(chan struct{})
	var cancels []func()
	cancelAll := func() {
		close(done)
		for _, c := range cancels {
			c()
		}
	}

	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			cancelAll()
			return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		cancels = append(cancels, cancel)
		go func() {
			for data := range ch {
				select {
				case out <- topicEvent{Topic: topic, Payload: data}:
				case <-done:
					return
				}
			}
		}()
	}
	return out, cancelAll, nil
}

// printEvents writes events until ctx is done.
func printEvents(ctx context.Context, w io.Writer, ch <-chan topicEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				data, err := json.Marshal(ev)
				if err != nil {
					return fmt.Errorf("marshaling event: %w", err)
				}
				fmt.Fprintln(w, string(data))
				continue
			}
			fmt.Fprintln(w, formatEvent(time.Now(), ev))
		}
	}
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(at time.Time, ev topicEvent) string {
	ts := ui.RenderMuted(at.Format("15:04:05"))
	switch ev.Topic {
	case events.TopicProjectCreated:
		var e events.ProjectCreated
		if json.Unmarshal(ev.Payload, &e) == nil && e.Project != nil {
			return fmt.Sprintf("%s created     %s (%s) by %s", ts, ui.RenderAccent(e.Project.Key), ui.RenderVisibility(e.Project.Visibility), e.Actor)
		}
	case events.TopicProjectVisibilityChanged:
		var e events.ProjectVisibilityChanged
		if json.Unmarshal(ev.Payload, &e) == nil {
			return fmt.Sprintf("%s visibility  %s is now %s by %s", ts, ui.RenderAccent(e.ProjectKey), ui.RenderVisibility(e.Visibility.String()), e.Actor)
		}
	case events.TopicOrganizationProjectVisibilityUpdated:
		var e events.OrganizationProjectVisibilityUpdated
		if json.Unmarshal(ev.Payload, &e) == nil {
			return fmt.Sprintf("%s default     new projects of %s are %s by %s", ts, ui.RenderAccent(e.OrganizationKey), ui.RenderVisibility(e.Visibility.String()), e.Actor)
		}
	case events.TopicPermissionsIndexed:
		var e events.PermissionsIndexed
		if json.Unmarshal(ev.Payload, &e) == nil && e.Authorization != nil {
			a := e.Authorization
			return fmt.Sprintf("%s indexed     %s anyone=%t groups=%d users=%d", ts, a.ProjectUUID, a.AllowAnyone, len(a.GroupIDs), len(a.UserIDs))
		}
	}
	return fmt.Sprintf("%s %s %s", ts, ev.Topic, string(ev.Payload))
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS URL (default $QUBE_NATS_URL or the active remote)")
	watchCmd.Flags().Bool("index", false, "also show authorization records sent to the component index")
}

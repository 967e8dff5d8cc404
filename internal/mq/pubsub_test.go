package mq

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workoai/referrals/config"
	"github.com/workoai/referrals/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const testProject = "referrals-test"

func newTestPubSub(t *testing.T) (*PubSubClient, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), testProject, option.WithGRPCConn(conn))
	require.NoError(t, err)

	p := newPubSubClient(client, "")
	t.Cleanup(func() { _ = p.Close() })
	return p, srv
}

func TestPubSubPublishUsesOrderingKey(t *testing.T) {
	p, srv := newTestPubSub(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := p.Publish(ctx, "referral-events", Message{
			Key:        "referral-1",
			Data:       []byte(`{}`),
			Attributes: map[string]string{"event_type": "referral.status_changed"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	msgs := srv.Messages()
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.Equal(t, "referral-1", m.OrderingKey)
		assert.Equal(t, "projects/"+testProject+"/topics/referral-events", m.Topic)
		assert.Equal(t, "referral.status_changed", m.Attributes["event_type"])
	}

	assert.Len(t, p.topics, 1)
	assert.True(t, p.topics["referral-events"].EnableMessageOrdering)
}

func TestPubSubPublishRequiresChannel(t *testing.T) {
	p, _ := newTestPubSub(t)
	_, err := p.Publish(context.Background(), " ", Message{Data: []byte("{}")})
	assert.ErrorContains(t, err, "pubsub channel is required")
}

func TestPubSubReferralEventsInOrder(t *testing.T) {
	p, _ := newTestPubSub(t)
	events := NewReferralEvents(New(p), "referral-events")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan types.ReferralEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- events.Consume(ctx, func(_ context.Context, e types.ReferralEvent) error {
			received <- e
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		ok, err := p.client.Subscription("referral-events" + defaultSubscriptionSuffix).Exists(context.Background())
		return err == nil && ok
	}, 5*time.Second, 20*time.Millisecond)

	referralID := uuid.New()
	sequence := []types.ReferralEvent{
		{Type: types.ReferralCreated, ReferralID: referralID, Status: types.StatusNew},
		{Type: types.ReferralStatusChanged, ReferralID: referralID, Status: types.StatusEvaluated},
		{Type: types.ReferralStatusChanged, ReferralID: referralID, Status: types.StatusHired},
	}
	for _, e := range sequence {
		e.OccurredAt = time.Now().UTC()
		require.NoError(t, events.PublishReferralEvent(context.Background(), e))
	}

	for _, want := range sequence {
		select {
		case got := <-received:
			assert.Equal(t, want.Type, got.Type)
			assert.Equal(t, want.Status, got.Status)
			assert.Equal(t, referralID, got.ReferralID)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want.Status)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestNewPubSubClientRequiresProject(t *testing.T) {
	_, err := NewPubSubClient(context.Background(), config.PubSubConfig{})
	assert.ErrorContains(t, err, "pubsub project id is required")
}

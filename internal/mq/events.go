package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/workoai/referrals/types"
)

const attrEventType = "event_type"

// ReferralEvents publishes and decodes referral events on a single channel.
type ReferralEvents struct {
	mq      *MQ
	channel string
}

func NewReferralEvents(mq *MQ, channel string) *ReferralEvents {
	return &ReferralEvents{mq: mq, channel: channel}
}

// PublishReferralEvent encodes event as JSON and publishes it keyed by the
// referral id, so the events of one referral stay in order.
func (e *ReferralEvents) PublishReferralEvent(ctx context.Context, event types.ReferralEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := e.mq.Publish(ctx, e.channel, Message{
		Key:        event.ReferralID.String(),
		Data:       data,
		Attributes: map[string]string{attrEventType: string(event.Type)},
	}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Consume blocks delivering decoded events to fn until ctx is done or the
// backend fails. Undecodable messages are acknowledged and dropped.
func (e *ReferralEvents) Consume(ctx context.Context, fn func(context.Context, types.ReferralEvent) error) error {
	return e.mq.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		event, err := DecodeReferralEvent(msg)
		if err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}

// DecodeReferralEvent parses a message produced by PublishReferralEvent.
func DecodeReferralEvent(msg Message) (types.ReferralEvent, error) {
	var event types.ReferralEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.ReferralEvent{}, fmt.Errorf("decode referral event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		event.Type = types.ReferralEventType(msg.Attributes[attrEventType])
	}
	if event.Type == "" {
		return types.ReferralEvent{}, errors.New("referral event without type")
	}
	return event, nil
}

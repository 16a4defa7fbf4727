// Package events delivers committed booking lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
)

// Discard is a publisher that drops every event.
type Discard struct{}

// Publish implements escrow.EventPublisher.
func (Discard) Publish(context.Context, escrow.BookingEvent) error {
	return nil
}

func encodeEvent(event escrow.BookingEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return payload, nil
}

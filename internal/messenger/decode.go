package messenger

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload marks a structurally broken webhook envelope. The whole
// delivery is rejected; there is no partial processing of broken input.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// envelope is the platform webhook wrapper: a list of entries, each grouping
// the messaging events of one page. Pointer slices distinguish a missing list
// from an empty one.
type envelope struct {
	Object string   `json:"object"`
	Entry  *[]entry `json:"entry"`
}

type entry struct {
	ID        string   `json:"id"`
	Time      int64    `json:"time"`
	Messaging *[]Event `json:"messaging"`
}

// DecodePayload parses a webhook delivery into its messaging events,
// flattening the entry level while preserving the original order. Receipt
// watermark updates depend on that order downstream.
func DecodePayload(data []byte) ([]Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Entry == nil {
		return nil, fmt.Errorf("%w: missing entry list", ErrMalformedPayload)
	}

	var events []Event
	for i, ent := range *env.Entry {
		if ent.Messaging == nil {
			return nil, fmt.Errorf("%w: entry %d missing messaging list", ErrMalformedPayload, i)
		}
		events = append(events, *ent.Messaging...)
	}
	return events, nil
}

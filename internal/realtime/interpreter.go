package realtime

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// EventKind classifies a normalized event from the speech service
type EventKind string

const (
	// EventTranscriptDelta is an incremental, non-final transcript. Used
	// only for live captioning, never for order decisions.
	EventTranscriptDelta EventKind = "transcript_delta"
	// EventTranscriptFinal marks a completed utterance boundary.
	EventTranscriptFinal EventKind = "transcript_final"
	// EventOrderItemsDetected carries one or more detected item tuples.
	EventOrderItemsDetected EventKind = "order_items_detected"
)

// Event is one normalized event emitted by the interpreter
type Event struct {
	Kind        EventKind
	UtteranceID string
	Text        string
	Items       []entities.DetectedItem
}

var errMalformedEvent = errors.New("malformed event payload")

// Interpreter classifies the transport's raw message stream into the three
// normalized event kinds. It does not correlate detections with transcripts
// beyond stamping utterance ids; events pass through in arrival order.
type Interpreter struct {
	logger *zap.Logger
	newID  func() string
}

// NewInterpreter creates an interpreter
func NewInterpreter(logger *zap.Logger) *Interpreter {
	return &Interpreter{
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Run consumes raw messages until the channel closes, forwarding normalized
// events. Malformed payloads are logged and dropped; the spoken conversation
// continues regardless of a single bad parse.
func (i *Interpreter) Run(raw <-chan RawMessage) <-chan Event {
	out := make(chan Event, cap(raw))
	go func() {
		defer close(out)
		for msg := range raw {
			event, err := i.Interpret(msg.Data)
			if err != nil {
				i.logger.Warn("Dropping malformed event payload", zap.Error(err))
				continue
			}
			out <- *event
		}
	}()
	return out
}

// Interpret classifies a single raw payload
func (i *Interpreter) Interpret(data []byte) (*Event, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case MessageTypeTranscriptDelta, MessageTypeTranscriptFinal:
		var msg TranscriptMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		if msg.Text == "" {
			return nil, errMalformedEvent
		}
		kind := EventTranscriptDelta
		if base.Type == MessageTypeTranscriptFinal {
			kind = EventTranscriptFinal
		}
		return &Event{
			Kind:        kind,
			UtteranceID: i.utteranceID(msg.UtteranceID),
			Text:        msg.Text,
		}, nil

	case MessageTypeOrderItems:
		var msg OrderItemsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		items := make([]entities.DetectedItem, 0, len(msg.Items))
		for _, item := range msg.Items {
			if item.Name == "" {
				continue
			}
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			items = append(items, entities.DetectedItem{
				Name:      item.Name,
				Modifiers: item.Modifiers,
				Quantity:  quantity,
			})
		}
		if len(items) == 0 {
			return nil, errMalformedEvent
		}
		return &Event{
			Kind:        EventOrderItemsDetected,
			UtteranceID: i.utteranceID(msg.UtteranceID),
			Items:       items,
		}, nil

	default:
		return nil, errMalformedEvent
	}
}

// utteranceID keeps the service-provided id when present so detections can
// be attributed to their transcript; otherwise a fresh id is generated.
func (i *Interpreter) utteranceID(provided string) string {
	if provided != "" {
		return provided
	}
	return i.newID()
}

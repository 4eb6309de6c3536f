package webhook

import (
	"encoding/json"
	"strings"
)

// Kind classifies a messaging notification.
type Kind string

const (
	KindText    Kind = "text"
	KindEcho    Kind = "echo"
	KindEdit    Kind = "edit"
	KindNonText Kind = "non_text"
	KindSystem  Kind = "system"
)

// InboundEvent is the part of a notification the relay acts on. Only events of
// KindText carry user input.
type InboundEvent struct {
	Kind     Kind
	SenderID string
	Text     string
	MID      string
}

// Replyable reports whether the event should produce a reply.
func (e InboundEvent) Replyable() bool {
	return e.Kind == KindText
}

// Result is the outcome of classifying one sub-event of a delivery.
type Result struct {
	Entry int
	Index int
	Event InboundEvent
	Err   error
}

// Classify inspects a single messaging notification. accountID is the business
// account's own id; messages it sent are treated as echoes even when the
// platform omits is_echo.
func Classify(m Messaging, accountID string) (InboundEvent, error) {
	switch {
	case m.Message != nil:
		sender := ""
		if m.Sender != nil {
			sender = strings.TrimSpace(m.Sender.ID)
		}
		if sender == "" {
			return InboundEvent{}, newError(ErrorMissingSender, "message_without_sender", nil)
		}
		ev := InboundEvent{SenderID: sender, MID: m.Message.MID}
		if m.Message.IsEcho || (accountID != "" && sender == accountID) {
			ev.Kind = KindEcho
			return ev, nil
		}
		if strings.TrimSpace(m.Message.Text) == "" {
			ev.Kind = KindNonText
			return ev, nil
		}
		ev.Kind = KindText
		ev.Text = m.Message.Text
		return ev, nil
	case len(m.MessageEdit) > 0:
		ev := InboundEvent{Kind: KindEdit}
		if m.Sender != nil {
			ev.SenderID = m.Sender.ID
		}
		return ev, nil
	default:
		return InboundEvent{Kind: KindSystem}, nil
	}
}

// Events decodes and classifies every sub-event of every entry. A malformed
// sub-event is reported in its own Result and does not stop the others.
func Events(p Payload, accountID string) []Result {
	var out []Result
	for i, entry := range p.Entry {
		for j, raw := range entry.Messaging {
			res := Result{Entry: i, Index: j}
			var m Messaging
			if err := json.Unmarshal(raw, &m); err != nil {
				res.Err = newError(ErrorMalformedPayload, "decode_messaging", err)
			} else {
				res.Event, res.Err = Classify(m, accountID)
			}
			out = append(out, res)
		}
	}
	return out
}

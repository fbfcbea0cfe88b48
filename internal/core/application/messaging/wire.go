package messaging

import (
	"encoding/json"
	"fmt"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Wire message types. Commands flow dispatcher to unit (assign, task_complete),
// reports flow unit to dispatcher (status, loc, ack).
const (
	TypeAssign       = "assign"
	TypeStatus       = "status"
	TypeLoc          = "loc"
	TypeAck          = "ack"
	TypeTaskComplete = "task_complete"
)

// Message is one JSON frame on the mesh link. Field presence depends on the
// type: every trackable command carries msg_id, every ack echoes the original
// command's id as ack_id.
type Message struct {
	Type       string   `json:"type"`
	MsgID      string   `json:"msg_id,omitempty"`
	AckID      string   `json:"ack_id,omitempty"`
	DeliveryID string   `json:"delivery_id,omitempty"`
	UnitID     string   `json:"unit_id,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Address    string   `json:"address,omitempty"`
	Status     string   `json:"status,omitempty"`
}

// NewAssignMessage builds the assignment command frame for a delivery.
func NewAssignMessage(msgID string, dlv *delivery.Delivery) Message {
	lat := dlv.Destination().Latitude()
	lon := dlv.Destination().Longitude()

	return Message{
		Type:       TypeAssign,
		MsgID:      msgID,
		DeliveryID: dlv.ID().String(),
		Address:    dlv.Address(),
		Latitude:   &lat,
		Longitude:  &lon,
	}
}

// NewTaskCompleteMessage builds the frame telling a unit its current task is
// finished and it may head back.
func NewTaskCompleteMessage(msgID string, deliveryID kernel.UUID) Message {
	return Message{
		Type:       TypeTaskComplete,
		MsgID:      msgID,
		DeliveryID: deliveryID.String(),
	}
}

// Encode serializes the message for transmission.
func (m Message) Encode() ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", m.Type, err)
	}
	return payload, nil
}

// DecodeMessage parses one inbound frame. Frames with an unknown type or
// without a type tag are rejected so the router can drop them with a warning.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	switch msg.Type {
	case TypeAssign, TypeStatus, TypeLoc, TypeAck, TypeTaskComplete:
		return msg, nil
	case "":
		return Message{}, errs.NewValueIsRequiredError("type")
	default:
		return Message{}, errs.NewValueIsInvalidError("type")
	}
}

// Position returns the reported coordinates, or nil when the frame carries
// none or they are out of range.
func (m Message) Position() *kernel.GeoPoint {
	if m.Latitude == nil || m.Longitude == nil {
		return nil
	}

	point, err := kernel.NewGeoPoint(*m.Latitude, *m.Longitude)
	if err != nil {
		return nil
	}
	return &point
}

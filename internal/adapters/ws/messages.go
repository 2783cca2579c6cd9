package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe    MessageType = "subscribe"
	MessageTypeUnsubscribe  MessageType = "unsubscribe"
	MessageTypePlaceBid     MessageType = "place_bid"
	MessageTypeGetAuction   MessageType = "get_auction"
	MessageTypeListAuctions MessageType = "list_auctions"
	MessageTypePing         MessageType = "ping"

	// Server to Client message types
	MessageTypeBidUpdate     MessageType = "bid_update"
	MessageTypeAuctionStatus MessageType = "auction_status"
	MessageTypeAuction       MessageType = "auction"
	MessageTypeAuctions      MessageType = "auctions"
	MessageTypeBidAccepted   MessageType = "bid_accepted"
	MessageTypeSubscribed    MessageType = "subscribed"
	MessageTypeUnsubscribed  MessageType = "unsubscribed"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType            `json:"type"`
	AuctionID *uuid.UUID             `json:"auction_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType            `json:"type"`
	AuctionID *uuid.UUID             `json:"auction_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

func NewErrorMessage(err string, auctionID *uuid.UUID) *ServerMessage {
	return &ServerMessage{
		Type:      MessageTypeError,
		AuctionID: auctionID,
		Error:     &err,
		Timestamp: time.Now().Unix(),
	}
}

// NewAuctionMessage wraps an auction snapshot
func NewAuctionMessage(a *auction.Auction) *ServerMessage {
	msg := NewServerMessage(MessageTypeAuction)
	id := a.ListingID
	msg.AuctionID = &id
	msg.Data["auction"] = a
	return msg
}

// EventMessage converts a broadcast event into the message pushed to subscribers
func EventMessage(event outbound.Event) *ServerMessage {
	msgType := MessageTypeBidUpdate
	if event.Type == outbound.EventTypeStatusChange {
		msgType = MessageTypeAuctionStatus
	}
	auctionID := event.AuctionID
	return &ServerMessage{
		Type:      msgType,
		AuctionID: &auctionID,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
}

func (m *ClientMessage) validateAuctionID() error {
	if m.AuctionID == nil || *m.AuctionID == uuid.Nil {
		return shared.ErrAuctionIDRequired
	}
	return nil
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe, MessageTypeGetAuction:
		return m.validateAuctionID()
	case MessageTypePlaceBid:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
		if _, ok := m.Data["amount"].(float64); !ok {
			return shared.ErrInvalidAmount
		}
	case MessageTypeListAuctions:
		_, err := m.Statuses()
		return err
	case MessageTypePing:

	default:
		return shared.ErrUnknownMessageType
	}

	return nil
}

// Statuses reads the optional data.statuses list of a list_auctions message.
// It defaults to Live and Upcoming like the public HTTP list.
func (m *ClientMessage) Statuses() ([]auction.Status, error) {
	raw, ok := m.Data["statuses"]
	if !ok || raw == nil {
		return []auction.Status{auction.StatusLive, auction.StatusUpcoming}, nil
	}
	values, ok := raw.([]interface{})
	if !ok {
		return nil, shared.ErrInvalidStatus
	}

	statuses := make([]auction.Status, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, shared.ErrInvalidStatus
		}
		status, err := auction.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

package ws

import (
	"context"
	"net/http"

	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/inbound"
	"listing-auction-service/internal/ports/outbound"
	"listing-auction-service/internal/syncutils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// UserIDHeader carries the caller identity set by the gateway
const UserIDHeader = "X-User-ID"

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients        map[string]*WsClient // clientID -> Client
	clientsMu      syncutils.RWMutex
	upgrader       websocket.Upgrader
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	broadcaster    outbound.Broadcaster
	logger         zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader       websocket.Upgrader
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Broadcaster    outbound.Broadcaster
	Logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:        make(map[string]*WsClient),
		upgrader:       params.Upgrader,
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		broadcaster:    params.Broadcaster,
		logger:         params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket upgrades the connection. Without an X-User-ID header the
// client may watch auctions but not bid.
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := uuid.Nil
	if raw := r.Header.Get(UserIDHeader); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid "+UserIDHeader+" header", http.StatusBadRequest)
			return
		}
		userID = parsed
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID:  userID,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)
	client.Start()

	go func() {
		<-client.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", userID.String()).Msg("WebSocket client connected")
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	metrics.WSClients.Inc()
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	_, known := handler.clients[client.id]
	delete(handler.clients, client.id)
	total := len(handler.clients)
	handler.clientsMu.Unlock()

	if !known {
		return
	}
	metrics.WSClients.Dec()

	// No event may reach the client's channel once this returns.
	if err := handler.broadcaster.UnsubscribeAll(context.Background(), client.id); err != nil {
		handler.logger.Warn().Err(err).Str("client_id", client.id).Msg("Failed to drop client subscriptions")
	}
	client.Stop()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID.String()).Int("total_clients", total).Msg("WebSocket client disconnected")
}

// Shutdown disconnects every client
func (handler *WsHandler) Shutdown() {
	handler.clientsMu.RLock()
	clients := make([]*WsClient, 0, len(handler.clients))
	for _, c := range handler.clients {
		clients = append(clients, c)
	}
	handler.clientsMu.RUnlock()

	for _, c := range clients {
		handler.unregisterClient(c)
	}
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)
	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)
	case MessageTypePlaceBid:
		return handler.handlePlaceBid(client, msg)
	case MessageTypeGetAuction:
		return handler.handleGetAuction(client, msg)
	case MessageTypeListAuctions:
		return handler.handleListAuctions(client, msg)
	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

// handleSubscribe checks the auction exists before subscribing
func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	if _, err := handler.auctionService.GetAuction(client.ctx, *msg.AuctionID); err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.AuctionID))
	}

	if err := handler.broadcaster.Subscribe(client.ctx, *msg.AuctionID, client.id, client.events); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Str("auction_id", msg.AuctionID.String()).Msg("Failed to subscribe to auction")
		return err
	}

	response := NewServerMessage(MessageTypeSubscribed)
	response.AuctionID = msg.AuctionID

	handler.logger.Debug().Str("client_id", client.id).Str("auction_id", msg.AuctionID.String()).Msg("Client subscribed to auction")
	return client.Send(response)
}

func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	if err := handler.broadcaster.Unsubscribe(client.ctx, *msg.AuctionID, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeUnsubscribed)
	response.AuctionID = msg.AuctionID
	return client.Send(response)
}

// handlePlaceBid replies with bid_accepted or an error; subscribers get the bid_update event
func (handler *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	if client.userID == uuid.Nil {
		return client.Send(NewErrorMessage(shared.ErrUnauthenticated.Error(), msg.AuctionID))
	}

	amount := msg.Data["amount"].(float64)
	updated, err := handler.bidService.PlaceBid(client.ctx, inbound.PlaceBidRequest{
		AuctionID: *msg.AuctionID,
		BidderID:  client.userID,
		Amount:    amount,
	})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.AuctionID))
	}

	response := NewServerMessage(MessageTypeBidAccepted)
	response.AuctionID = msg.AuctionID
	response.Data["auction"] = updated
	response.Data["bid"] = updated.Bids[len(updated.Bids)-1]

	handler.logger.Debug().Str("auction_id", msg.AuctionID.String()).Str("user_id", client.userID.String()).Float64("amount", amount).Msg("Bid placed over websocket")
	return client.Send(response)
}

func (handler *WsHandler) handleGetAuction(client *WsClient, msg *ClientMessage) error {
	a, err := handler.auctionService.GetAuction(client.ctx, *msg.AuctionID)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.AuctionID))
	}
	return client.Send(NewAuctionMessage(a))
}

func (handler *WsHandler) handleListAuctions(client *WsClient, msg *ClientMessage) error {
	statuses, err := msg.Statuses()
	if err != nil {
		return err
	}

	auctions, err := handler.auctionService.ListAuctions(client.ctx, inbound.ListAuctionsRequest{Statuses: statuses})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), nil))
	}

	response := NewServerMessage(MessageTypeAuctions)
	response.Data["auctions"] = auctions
	response.Data["count"] = len(auctions)
	return client.Send(response)
}

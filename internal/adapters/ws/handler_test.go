package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"listing-auction-service/internal/adapters/broadcaster"
	"listing-auction-service/internal/adapters/memory"
	"listing-auction-service/internal/app"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type wsFixture struct {
	handler     *WsHandler
	broadcaster *broadcaster.LocalBroadcaster
	server      *httptest.Server
	auctionID   uuid.UUID
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	store := memory.NewStore()
	local := broadcaster.NewLocalBroadcaster(broadcaster.LocalBroadcasterParams{Logger: logger})
	emitter := broadcaster.NewEmitter(broadcaster.EmitterParams{Broadcaster: local, Timeout: time.Second, Logger: logger})
	t.Cleanup(emitter.Close)

	listings := app.NewListingService(app.ListingServiceParams{ListingRepo: store.Listings(), StoreTimeout: time.Second, Logger: logger})
	auctions := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo:  store.Auctions(),
		ListingRepo:  store.Listings(),
		Emitter:      emitter,
		StoreTimeout: time.Second,
		Logger:       logger,
	})
	bids := app.NewBidService(app.BidServiceParams{AuctionRepo: store.Auctions(), Emitter: emitter, StoreTimeout: time.Second, Logger: logger})

	listing, err := listings.CreateListing(ctx, inbound.CreateListingRequest{Title: "Loft"})
	require.NoError(t, err)
	_, err = auctions.CreateAuction(ctx, inbound.CreateAuctionRequest{
		ListingID:     listing.ID,
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
		StartingPrice: 100,
	})
	require.NoError(t, err)

	h := NewHandler(WsHandlerParams{
		AuctionService: auctions,
		BidService:     bids,
		Broadcaster:    local,
		Logger:         logger,
	})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(func() {
		h.Shutdown()
		server.Close()
	})

	return &wsFixture{handler: h, broadcaster: local, server: server, auctionID: listing.ID}
}

func (f *wsFixture) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if userID != uuid.Nil {
		header.Set(UserIDHeader, userID.String())
	}
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, want MessageType) *ServerMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return &msg
		}
	}
}

func TestHandler_SubscribeAndBid(t *testing.T) {
	f := newWSFixture(t)
	watcher := f.dial(t, uuid.Nil)
	bidder := f.dial(t, uuid.New())

	send(t, watcher, ClientMessage{Type: MessageTypeSubscribe, AuctionID: &f.auctionID})
	readUntil(t, watcher, MessageTypeSubscribed)

	send(t, bidder, ClientMessage{Type: MessageTypePlaceBid, AuctionID: &f.auctionID, Data: map[string]interface{}{"amount": 150.0}})
	accepted := readUntil(t, bidder, MessageTypeBidAccepted)
	require.Equal(t, f.auctionID, *accepted.AuctionID)

	update := readUntil(t, watcher, MessageTypeBidUpdate)
	require.Equal(t, f.auctionID, *update.AuctionID)
	require.Equal(t, 150.0, update.Data["current_bid"])
}

func TestHandler_BidRejections(t *testing.T) {
	f := newWSFixture(t)

	anonymous := f.dial(t, uuid.Nil)
	send(t, anonymous, ClientMessage{Type: MessageTypePlaceBid, AuctionID: &f.auctionID, Data: map[string]interface{}{"amount": 150.0}})
	msg := readUntil(t, anonymous, MessageTypeError)
	require.Equal(t, shared.ErrUnauthenticated.Error(), *msg.Error)

	bidder := f.dial(t, uuid.New())
	send(t, bidder, ClientMessage{Type: MessageTypePlaceBid, AuctionID: &f.auctionID, Data: map[string]interface{}{"amount": 100.0}})
	msg = readUntil(t, bidder, MessageTypeError)
	require.Contains(t, *msg.Error, shared.ErrBidTooLow.Error())

	send(t, bidder, ClientMessage{Type: "create_auction"})
	msg = readUntil(t, bidder, MessageTypeError)
	require.Contains(t, *msg.Error, shared.ErrUnknownMessageType.Error())
}

func TestHandler_QueriesAndPing(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, uuid.Nil)

	send(t, conn, ClientMessage{Type: MessageTypePing})
	readUntil(t, conn, MessageTypePong)

	send(t, conn, ClientMessage{Type: MessageTypeGetAuction, AuctionID: &f.auctionID})
	got := readUntil(t, conn, MessageTypeAuction)
	require.Equal(t, f.auctionID, *got.AuctionID)

	send(t, conn, ClientMessage{Type: MessageTypeListAuctions})
	list := readUntil(t, conn, MessageTypeAuctions)
	require.Equal(t, 1.0, list.Data["count"])

	missing := uuid.New()
	send(t, conn, ClientMessage{Type: MessageTypeSubscribe, AuctionID: &missing})
	msg := readUntil(t, conn, MessageTypeError)
	require.Contains(t, *msg.Error, shared.ErrAuctionNotFound.Error())
}

func TestHandler_DisconnectDropsSubscriptions(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, uuid.Nil)

	send(t, conn, ClientMessage{Type: MessageTypeSubscribe, AuctionID: &f.auctionID})
	readUntil(t, conn, MessageTypeSubscribed)
	require.Equal(t, 1, f.handler.GetConnectedClients())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return f.handler.GetConnectedClients() == 0
	}, 3*time.Second, 10*time.Millisecond)
}

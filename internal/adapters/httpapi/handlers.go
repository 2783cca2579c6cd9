package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errInternal = errors.New("internal server error")

// publicStatuses is the default filter of the public auction list
var publicStatuses = []auction.Status{auction.StatusLive, auction.StatusUpcoming}

// Handler serves the REST surface over the inbound services
type Handler struct {
	auctions inbound.AuctionService
	bids     inbound.BidService
	listings inbound.ListingService
	logger   zerolog.Logger
}

type HandlerParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	ListingService inbound.ListingService
	Logger         zerolog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		auctions: params.AuctionService,
		bids:     params.BidService,
		listings: params.ListingService,
		logger:   params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

func auctionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, shared.ErrInvalidAuctionIDFormat)
		return uuid.Nil, false
	}
	return id, true
}

func listingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, shared.ErrInvalidListingIDFormat)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err))
		return false
	}
	return true
}

// ListPublicAuctions handles GET /auctions
func (h *Handler) ListPublicAuctions(c *gin.Context) {
	h.listAuctions(c, publicStatuses)
}

// ListAllAuctions handles GET /admin/auctions
func (h *Handler) ListAllAuctions(c *gin.Context) {
	h.listAuctions(c, nil)
}

func (h *Handler) listAuctions(c *gin.Context, defaults []auction.Status) {
	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(statuses) == 0 {
		statuses = defaults
	}

	auctions, err := h.auctions.ListAuctions(c.Request.Context(), inbound.ListAuctionsRequest{Statuses: statuses})
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
}

// GetAuction handles GET /auctions/:id
func (h *Handler) GetAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	a, err := h.auctions.GetAuction(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, a, "auction retrieved successfully")
}

// ListBids handles GET /auctions/:id/bids
func (h *Handler) ListBids(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	ledger, err := h.bids.ListBids(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, ledger, "bids retrieved successfully")
}

// PlaceBid handles POST /auctions/:id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var body placeBidBody
	if !bindJSON(c, &body) {
		return
	}
	if body.Amount == nil {
		abortWithError(c, shared.ErrInvalidAmount)
		return
	}

	caller := callerFrom(c)
	updated, err := h.bids.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		AuctionID: id,
		BidderID:  caller.UserID,
		Amount:    *body.Amount,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	JSONResponse(c, http.StatusCreated, bidPlacedResponse{
		Auction: updated,
		Bid:     updated.Bids[len(updated.Bids)-1],
	}, "bid placed successfully")
}

// CreateListing handles POST /admin/listings
func (h *Handler) CreateListing(c *gin.Context) {
	var body createListingBody
	if !bindJSON(c, &body) {
		return
	}
	listing, err := h.listings.CreateListing(c.Request.Context(), inbound.CreateListingRequest{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusCreated, listing, "listing created successfully")
}

// GetListing handles GET /admin/listings/:id
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}
	listing, err := h.listings.GetListing(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, listing, "listing retrieved successfully")
}

// DeleteListing handles DELETE /admin/listings/:id
func (h *Handler) DeleteListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}
	if err := h.listings.DeleteListing(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, nil, "listing deleted successfully")
}

// CreateAuction handles POST /admin/auctions
func (h *Handler) CreateAuction(c *gin.Context) {
	var body createAuctionBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		abortWithError(c, err)
		return
	}
	a, err := h.auctions.CreateAuction(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusCreated, a, "auction created successfully")
}

// EditAuction handles PATCH /admin/auctions/:id
func (h *Handler) EditAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var body editAuctionBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		abortWithError(c, err)
		return
	}
	a, err := h.auctions.EditAuction(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, a, "auction updated successfully")
}

// CancelAuction handles POST /admin/auctions/:id/cancel
func (h *Handler) CancelAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	a, err := h.auctions.CancelAuction(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	JSONResponse(c, http.StatusOK, a, "auction cancelled successfully")
}

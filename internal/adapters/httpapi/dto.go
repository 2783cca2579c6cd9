package httpapi

import (
	"fmt"
	"strings"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
)

// Times on the wire are RFC3339 strings.

type createListingBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createAuctionBody struct {
	ListingID     string  `json:"listing_id" binding:"required"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	StartingPrice float64 `json:"starting_price"`
	ReservePrice  float64 `json:"reserve_price"`
}

func (b createAuctionBody) toRequest() (inbound.CreateAuctionRequest, error) {
	listingID, err := uuid.Parse(b.ListingID)
	if err != nil {
		return inbound.CreateAuctionRequest{}, shared.ErrInvalidListingIDFormat
	}
	start, err := parseOptionalTime("start_time", b.StartTime)
	if err != nil {
		return inbound.CreateAuctionRequest{}, err
	}
	end, err := parseOptionalTime("end_time", b.EndTime)
	if err != nil {
		return inbound.CreateAuctionRequest{}, err
	}
	return inbound.CreateAuctionRequest{
		ListingID:     listingID,
		StartTime:     start,
		EndTime:       end,
		StartingPrice: b.StartingPrice,
		ReservePrice:  b.ReservePrice,
	}, nil
}

type editAuctionBody struct {
	StartTime     *string  `json:"start_time"`
	EndTime       *string  `json:"end_time"`
	StartingPrice *float64 `json:"starting_price"`
	ReservePrice  *float64 `json:"reserve_price"`
	Status        *string  `json:"status"`
}

func (b editAuctionBody) toRequest() (inbound.EditAuctionRequest, error) {
	req := inbound.EditAuctionRequest{
		StartingPrice: b.StartingPrice,
		ReservePrice:  b.ReservePrice,
	}
	if b.StartTime != nil {
		start, err := parseTime("start_time", *b.StartTime)
		if err != nil {
			return req, err
		}
		req.StartTime = &start
	}
	if b.EndTime != nil {
		end, err := parseTime("end_time", *b.EndTime)
		if err != nil {
			return req, err
		}
		req.EndTime = &end
	}
	if b.Status != nil {
		status, err := auction.ParseStatus(*b.Status)
		if err != nil {
			return req, err
		}
		req.Status = &status
	}
	return req, nil
}

type placeBidBody struct {
	Amount *float64 `json:"amount"`
}

type bidPlacedResponse struct {
	Auction *auction.Auction `json:"auction"`
	Bid     bid.Bid          `json:"bid"`
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", shared.ErrInvalidTimeFormat, field)
	}
	return t, nil
}

func parseOptionalTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseTime(field, value)
}

// parseStatuses accepts repeated and comma separated status values
func parseStatuses(values []string) ([]auction.Status, error) {
	var statuses []auction.Status
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, err := auction.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

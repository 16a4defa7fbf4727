package bookingapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleCreateListing(ctx *gin.Context) {
	var request listingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	response, err := handler.escrowClient.CreateListing(ctx.Request.Context(), &escrowv1.CreateListingRequest{
		CallerId:      partyID(ctx),
		Title:         request.Title,
		Description:   request.Description,
		StreetAddress: request.StreetAddress,
		Latitude:      request.Latitude,
		Longitude:     request.Longitude,
		PricePerHour:  request.PricePerHour,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "create listing failed", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"listing": toListingPayload(response.GetListing())})
}

func (handler *httpHandler) handleUpdateListing(ctx *gin.Context) {
	var request listingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	response, err := handler.escrowClient.UpdateListing(ctx.Request.Context(), &escrowv1.UpdateListingRequest{
		CallerId:      partyID(ctx),
		ListingId:     ctx.Param("id"),
		Title:         request.Title,
		Description:   request.Description,
		StreetAddress: request.StreetAddress,
		Latitude:      request.Latitude,
		Longitude:     request.Longitude,
		PricePerHour:  request.PricePerHour,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "update listing failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"listing": toListingPayload(response.GetListing())})
}

func (handler *httpHandler) handleWithdrawListing(ctx *gin.Context) {
	handler.setListingActive(ctx, false)
}

func (handler *httpHandler) handleActivateListing(ctx *gin.Context) {
	handler.setListingActive(ctx, true)
}

func (handler *httpHandler) setListingActive(ctx *gin.Context, active bool) {
	response, err := handler.escrowClient.SetListingActive(ctx.Request.Context(), &escrowv1.SetListingActiveRequest{
		CallerId:  partyID(ctx),
		ListingId: ctx.Param("id"),
		Active:    active,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "change listing state failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"listing": toListingPayload(response.GetListing())})
}

func (handler *httpHandler) handleGetListing(ctx *gin.Context) {
	response, err := handler.escrowClient.GetListing(ctx.Request.Context(), &escrowv1.GetListingRequest{ListingId: ctx.Param("id")})
	if err != nil {
		handler.respondEscrowError(ctx, "get listing failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"listing": toListingPayload(response.GetListing())})
}

// handleBrowseListings is the driver view: every active listing.
func (handler *httpHandler) handleBrowseListings(ctx *gin.Context) {
	handler.respondWithListings(ctx, &escrowv1.ListListingsRequest{ActiveOnly: true, Limit: listingListLimit})
}

// handleMyListings is the owner view, withdrawn listings included.
func (handler *httpHandler) handleMyListings(ctx *gin.Context) {
	handler.respondWithListings(ctx, &escrowv1.ListListingsRequest{OwnerId: partyID(ctx), Limit: listingListLimit})
}

func (handler *httpHandler) respondWithListings(ctx *gin.Context, request *escrowv1.ListListingsRequest) {
	response, err := handler.escrowClient.ListListings(ctx.Request.Context(), request)
	if err != nil {
		handler.respondEscrowError(ctx, "list listings failed", err)
		return
	}
	listings := make([]listingPayload, 0, len(response.GetListings()))
	for _, listing := range response.GetListings() {
		listings = append(listings, toListingPayload(listing))
	}
	ctx.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (handler *httpHandler) handleListFavorites(ctx *gin.Context) {
	response, err := handler.escrowClient.ListFavorites(ctx.Request.Context(), &escrowv1.ListFavoritesRequest{PartyId: partyID(ctx)})
	if err != nil {
		handler.respondEscrowError(ctx, "list favorites failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"favorites": response.GetListingIds()})
}

func (handler *httpHandler) handleAddFavorite(ctx *gin.Context) {
	response, err := handler.escrowClient.AddFavorite(ctx.Request.Context(), &escrowv1.AddFavoriteRequest{
		PartyId:   partyID(ctx),
		ListingId: ctx.Param("id"),
	})
	if err != nil {
		handler.respondEscrowError(ctx, "add favorite failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"favorites": response.GetListingIds()})
}

func (handler *httpHandler) handleRemoveFavorite(ctx *gin.Context) {
	response, err := handler.escrowClient.RemoveFavorite(ctx.Request.Context(), &escrowv1.RemoveFavoriteRequest{
		PartyId:   partyID(ctx),
		ListingId: ctx.Param("id"),
	})
	if err != nil {
		handler.respondEscrowError(ctx, "remove favorite failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"favorites": response.GetListingIds()})
}

func toListingPayload(listing *escrowv1.Listing) listingPayload {
	if listing == nil {
		return listingPayload{}
	}
	return listingPayload{
		ListingID:      listing.ListingId,
		OwnerID:        listing.OwnerId,
		Title:          listing.Title,
		Description:    listing.Description,
		StreetAddress:  listing.StreetAddress,
		Latitude:       listing.Latitude,
		Longitude:      listing.Longitude,
		PricePerHour:   listing.PricePerHour,
		Active:         listing.Active,
		CreatedUnixUTC: listing.CreatedUnixUtc,
		UpdatedUnixUTC: listing.UpdatedUnixUtc,
	}
}

type listingRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	StreetAddress string  `json:"street_address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PricePerHour  uint64  `json:"price_per_hour"`
}

type listingPayload struct {
	ListingID      string  `json:"listing_id"`
	OwnerID        string  `json:"owner_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	StreetAddress  string  `json:"street_address,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PricePerHour   uint64  `json:"price_per_hour"`
	Active         bool    `json:"active"`
	CreatedUnixUTC int64   `json:"created_unix_utc"`
	UpdatedUnixUTC int64   `json:"updated_unix_utc"`
}

package grpcserver

import (
	"context"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type listingDetailsRequest interface {
	GetTitle() string
	GetDescription() string
	GetStreetAddress() string
	GetLatitude() float64
	GetLongitude() float64
	GetPricePerHour() uint64
}

func (server *EscrowServiceServer) CreateListing(ctx context.Context, request *escrowv1.CreateListingRequest) (*escrowv1.ListingResponse, error) {
	owner, err := escrow.NewPartyID(request.GetCallerId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	listing, operationError := server.escrowService.CreateListing(ctx, owner, listingDetails(request))
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.ListingResponse{Listing: toWireListing(listing)}, nil
}

func (server *EscrowServiceServer) UpdateListing(ctx context.Context, request *escrowv1.UpdateListingRequest) (*escrowv1.ListingResponse, error) {
	caller, id, err := parseListingRef(request.GetCallerId(), request.GetListingId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	listing, operationError := server.escrowService.UpdateListing(ctx, caller, id, listingDetails(request))
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.ListingResponse{Listing: toWireListing(listing)}, nil
}

func (server *EscrowServiceServer) SetListingActive(ctx context.Context, request *escrowv1.SetListingActiveRequest) (*escrowv1.ListingResponse, error) {
	caller, id, err := parseListingRef(request.GetCallerId(), request.GetListingId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	listing, operationError := server.escrowService.SetListingActive(ctx, caller, id, request.GetActive())
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.ListingResponse{Listing: toWireListing(listing)}, nil
}

func (server *EscrowServiceServer) GetListing(ctx context.Context, request *escrowv1.GetListingRequest) (*escrowv1.ListingResponse, error) {
	id, err := escrow.NewListingID(request.GetListingId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	listing, operationError := server.escrowService.GetListing(ctx, id)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.ListingResponse{Listing: toWireListing(listing)}, nil
}

func (server *EscrowServiceServer) ListListings(ctx context.Context, request *escrowv1.ListListingsRequest) (*escrowv1.ListListingsResponse, error) {
	var owner escrow.PartyID
	if request.GetOwnerId() != "" {
		parsed, err := escrow.NewPartyID(request.GetOwnerId())
		if err != nil {
			return nil, mapToGRPCError(err)
		}
		owner = parsed
	}
	limit, err := normalizeListLimit(request.GetLimit())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorInvalidListLimit)
	}
	filter, err := escrow.NewListingFilter(owner, request.GetActiveOnly(), int(limit))
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	listings, operationError := server.escrowService.ListListings(ctx, filter)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	response := &escrowv1.ListListingsResponse{Listings: make([]*escrowv1.Listing, 0, len(listings))}
	for _, listing := range listings {
		response.Listings = append(response.Listings, toWireListing(listing))
	}
	return response, nil
}

func (server *EscrowServiceServer) AddFavorite(ctx context.Context, request *escrowv1.AddFavoriteRequest) (*escrowv1.FavoritesResponse, error) {
	party, id, err := parseListingRef(request.GetPartyId(), request.GetListingId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	favorites, operationError := server.escrowService.AddFavorite(ctx, party, id)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return toWireFavorites(favorites), nil
}

func (server *EscrowServiceServer) RemoveFavorite(ctx context.Context, request *escrowv1.RemoveFavoriteRequest) (*escrowv1.FavoritesResponse, error) {
	party, id, err := parseListingRef(request.GetPartyId(), request.GetListingId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	favorites, operationError := server.escrowService.RemoveFavorite(ctx, party, id)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return toWireFavorites(favorites), nil
}

func (server *EscrowServiceServer) ListFavorites(ctx context.Context, request *escrowv1.ListFavoritesRequest) (*escrowv1.FavoritesResponse, error) {
	party, err := escrow.NewPartyID(request.GetPartyId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	favorites, operationError := server.escrowService.Favorites(ctx, party)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return toWireFavorites(favorites), nil
}

func parseListingRef(rawParty string, rawListing string) (escrow.PartyID, escrow.ListingID, error) {
	party, err := escrow.NewPartyID(rawParty)
	if err != nil {
		return escrow.PartyID{}, escrow.ListingID{}, err
	}
	id, err := escrow.NewListingID(rawListing)
	if err != nil {
		return escrow.PartyID{}, escrow.ListingID{}, err
	}
	return party, id, nil
}

// listingDetails leaves price validation to the domain so a zero price reports invalid_listing.
func listingDetails(request listingDetailsRequest) escrow.ListingDetails {
	return escrow.ListingDetails{
		Title:         request.GetTitle(),
		Description:   request.GetDescription(),
		StreetAddress: request.GetStreetAddress(),
		Latitude:      request.GetLatitude(),
		Longitude:     request.GetLongitude(),
		PricePerHour:  escrow.Amount(request.GetPricePerHour()),
	}
}

func toWireListing(listing escrow.Listing) *escrowv1.Listing {
	details := listing.Details()
	return &escrowv1.Listing{
		ListingId:      listing.ID().String(),
		OwnerId:        listing.Owner().String(),
		Title:          details.Title,
		Description:    details.Description,
		StreetAddress:  details.StreetAddress,
		Latitude:       details.Latitude,
		Longitude:      details.Longitude,
		PricePerHour:   details.PricePerHour.Uint64(),
		Active:         listing.Active(),
		CreatedUnixUtc: listing.CreatedUnixUTC(),
		UpdatedUnixUtc: listing.UpdatedUnixUTC(),
	}
}

func toWireFavorites(favorites []escrow.ListingID) *escrowv1.FavoritesResponse {
	response := &escrowv1.FavoritesResponse{ListingIds: make([]string, 0, len(favorites))}
	for _, id := range favorites {
		response.ListingIds = append(response.ListingIds, id.String())
	}
	return response
}

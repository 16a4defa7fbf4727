package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorInsufficientFunds   = "insufficient_funds"
	errorUnauthorized        = "unauthorized"
	errorInvalidState        = "invalid_state"
	errorAddressMismatch     = "address_mismatch"
	errorBookingExists       = "booking_exists"
	errorUnknownBooking      = "unknown_booking"
	errorArithmeticOverflow  = "arithmetic_overflow"
	errorEscrowImbalance     = "escrow_imbalance"
	errorInvalidPartyID      = "invalid_party_id"
	errorInvalidParty        = "invalid_party"
	errorInvalidNonce        = "invalid_nonce"
	errorInvalidAddress      = "invalid_address"
	errorInvalidAmount       = "invalid_amount"
	errorInvalidWindow       = "invalid_window"
	errorInvalidMetadata     = "invalid_metadata_json"
	errorInvalidFilter       = "invalid_filter"
	errorInvalidListLimit    = "invalid_list_limit"
	errorUnknownListing      = "unknown_listing"
	errorInvalidListing      = "invalid_listing"
	errorListingInactive     = "listing_inactive"
	errorListingOwner        = "listing_owner_mismatch"
	errorPriceMismatch       = "price_mismatch"
	defaultListLimit         = 50
	maxListLimit             = 200
	listEntriesCutoffPadding = time.Second
)

type errorMapping struct {
	target  error
	code    codes.Code
	message string
}

// errorMappings is ordered: the first sentinel matched by errors.Is wins.
var errorMappings = []errorMapping{
	{target: escrow.ErrAddressMismatch, code: codes.FailedPrecondition, message: errorAddressMismatch},
	{target: escrow.ErrUnauthorized, code: codes.PermissionDenied, message: errorUnauthorized},
	{target: escrow.ErrInvalidState, code: codes.FailedPrecondition, message: errorInvalidState},
	{target: escrow.ErrInsufficientFunds, code: codes.FailedPrecondition, message: errorInsufficientFunds},
	{target: escrow.ErrBookingExists, code: codes.AlreadyExists, message: errorBookingExists},
	{target: escrow.ErrUnknownBooking, code: codes.NotFound, message: errorUnknownBooking},
	{target: escrow.ErrUnknownListing, code: codes.NotFound, message: errorUnknownListing},
	{target: escrow.ErrListingInactive, code: codes.FailedPrecondition, message: errorListingInactive},
	{target: escrow.ErrListingOwnerMismatch, code: codes.FailedPrecondition, message: errorListingOwner},
	{target: escrow.ErrPriceMismatch, code: codes.FailedPrecondition, message: errorPriceMismatch},
	{target: escrow.ErrArithmeticOverflow, code: codes.OutOfRange, message: errorArithmeticOverflow},
	{target: escrow.ErrEscrowImbalance, code: codes.Internal, message: errorEscrowImbalance},
	{target: escrow.ErrInvalidPartyID, code: codes.InvalidArgument, message: errorInvalidPartyID},
	{target: escrow.ErrInvalidParty, code: codes.InvalidArgument, message: errorInvalidParty},
	{target: escrow.ErrInvalidNonce, code: codes.InvalidArgument, message: errorInvalidNonce},
	{target: escrow.ErrInvalidAddress, code: codes.InvalidArgument, message: errorInvalidAddress},
	{target: escrow.ErrInvalidAmount, code: codes.InvalidArgument, message: errorInvalidAmount},
	{target: escrow.ErrInvalidWindow, code: codes.InvalidArgument, message: errorInvalidWindow},
	{target: escrow.ErrInvalidMetadataJSON, code: codes.InvalidArgument, message: errorInvalidMetadata},
	{target: escrow.ErrInvalidFilter, code: codes.InvalidArgument, message: errorInvalidFilter},
	{target: escrow.ErrInvalidListing, code: codes.InvalidArgument, message: errorInvalidListing},
}

// EscrowServiceServer exposes the booking ledger over gRPC.
// Caller identities are trusted: the dispatch layer in front of this server authenticates them.
type EscrowServiceServer struct {
	escrowv1.UnimplementedEscrowServiceServer
	escrowService *escrow.Service
}

// NewEscrowServiceServer constructs a gRPC server for the escrow service.
func NewEscrowServiceServer(escrowService *escrow.Service) *EscrowServiceServer {
	return &EscrowServiceServer{escrowService: escrowService}
}

func (server *EscrowServiceServer) OpenBooking(ctx context.Context, request *escrowv1.OpenBookingRequest) (*escrowv1.BookingResponse, error) {
	caller, err := escrow.NewPartyID(request.GetCallerId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	owner, err := escrow.NewPartyID(request.GetOwnerId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	nonce, err := escrow.NewNonce(request.GetNonce())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	amount, err := escrow.NewAmount(request.GetAmount())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	metadata, err := escrow.NewMetadataJSON(request.GetMetadataJson())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	booking, operationError := server.escrowService.Open(ctx, caller, escrow.OpenRequest{
		Owner:        owner,
		Nonce:        nonce,
		Amount:       amount,
		ListingID:    request.GetListingId(),
		StartUnixUTC: request.GetStartUnixUtc(),
		EndUnixUTC:   request.GetEndUnixUtc(),
		Metadata:     metadata,
	})
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.BookingResponse{Booking: toWireBooking(booking)}, nil
}

func (server *EscrowServiceServer) CancelBooking(ctx context.Context, request *escrowv1.CancelBookingRequest) (*escrowv1.BookingResponse, error) {
	caller, locator, err := parseLocatorRequest(request)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	booking, operationError := server.escrowService.Cancel(ctx, caller, locator)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.BookingResponse{Booking: toWireBooking(booking)}, nil
}

func (server *EscrowServiceServer) ConfirmBooking(ctx context.Context, request *escrowv1.ConfirmBookingRequest) (*escrowv1.ConfirmBookingResponse, error) {
	caller, locator, err := parseLocatorRequest(request)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	settlement, operationError := server.escrowService.Confirm(ctx, caller, locator)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.ConfirmBookingResponse{
		Booking:     toWireBooking(settlement.Booking),
		OwnerAmount: settlement.OwnerAmount.Uint64(),
		PlatformFee: settlement.PlatformFee.Uint64(),
	}, nil
}

func (server *EscrowServiceServer) GetBooking(ctx context.Context, request *escrowv1.GetBookingRequest) (*escrowv1.BookingResponse, error) {
	address, err := escrow.NewBookingAddress(request.GetAddress())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	booking, operationError := server.escrowService.Get(ctx, address)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.BookingResponse{Booking: toWireBooking(booking)}, nil
}

func (server *EscrowServiceServer) ListBookings(ctx context.Context, request *escrowv1.ListBookingsRequest) (*escrowv1.ListBookingsResponse, error) {
	party, err := escrow.NewPartyID(request.GetPartyId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	limit, err := normalizeListLimit(request.GetLimit())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorInvalidListLimit)
	}
	filter, err := escrow.NewBookingFilter(escrow.BookingRole(request.GetRole()), party, int(limit))
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	bookings, operationError := server.escrowService.List(ctx, filter)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	response := &escrowv1.ListBookingsResponse{Bookings: make([]*escrowv1.Booking, 0, len(bookings))}
	for _, booking := range bookings {
		response.Bookings = append(response.Bookings, toWireBooking(booking))
	}
	return response, nil
}

func (server *EscrowServiceServer) Deposit(ctx context.Context, request *escrowv1.DepositRequest) (*escrowv1.Empty, error) {
	party, err := escrow.NewPartyID(request.GetPartyId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	amount, err := escrow.NewAmount(request.GetAmount())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	if operationError := server.escrowService.Deposit(ctx, party, amount); operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.Empty{}, nil
}

func (server *EscrowServiceServer) GetBalance(ctx context.Context, request *escrowv1.BalanceRequest) (*escrowv1.BalanceResponse, error) {
	party, err := escrow.NewPartyID(request.GetPartyId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	balance, operationError := server.escrowService.Balance(ctx, party)
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	return &escrowv1.BalanceResponse{Amount: balance.Uint64()}, nil
}

func (server *EscrowServiceServer) ListEntries(ctx context.Context, request *escrowv1.ListEntriesRequest) (*escrowv1.ListEntriesResponse, error) {
	party, err := escrow.NewPartyID(request.GetPartyId())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	limit, err := normalizeListLimit(request.GetLimit())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorInvalidListLimit)
	}
	before := request.GetBeforeUnixUtc()
	if before == 0 {
		before = time.Now().UTC().Add(listEntriesCutoffPadding).Unix()
	}
	entries, operationError := server.escrowService.ListEntries(ctx, party, before, int(limit))
	if operationError != nil {
		return nil, mapToGRPCError(operationError)
	}
	response := &escrowv1.ListEntriesResponse{Entries: make([]*escrowv1.Entry, 0, len(entries))}
	for _, entry := range entries {
		response.Entries = append(response.Entries, &escrowv1.Entry{
			EntryId:        entry.EntryID.String(),
			FromAccount:    entry.From.String(),
			ToAccount:      entry.To.String(),
			Kind:           entry.Kind.String(),
			Amount:         entry.Amount.Uint64(),
			BookingAddress: entry.BookingAddress.String(),
			CreatedUnixUtc: entry.CreatedUnixUTC,
		})
	}
	return response, nil
}

func parseLocatorRequest(request *escrowv1.BookingLocatorRequest) (escrow.PartyID, escrow.BookingLocator, error) {
	caller, err := escrow.NewPartyID(request.GetCallerId())
	if err != nil {
		return escrow.PartyID{}, escrow.BookingLocator{}, err
	}
	address, err := escrow.NewBookingAddress(request.GetAddress())
	if err != nil {
		return escrow.PartyID{}, escrow.BookingLocator{}, err
	}
	driver, err := escrow.NewPartyID(request.GetDriverId())
	if err != nil {
		return escrow.PartyID{}, escrow.BookingLocator{}, err
	}
	nonce, err := escrow.NewNonce(request.GetNonce())
	if err != nil {
		return escrow.PartyID{}, escrow.BookingLocator{}, err
	}
	locator, err := escrow.NewBookingLocator(address, driver, nonce)
	if err != nil {
		return escrow.PartyID{}, escrow.BookingLocator{}, err
	}
	return caller, locator, nil
}

func toWireBooking(booking escrow.Booking) *escrowv1.Booking {
	return &escrowv1.Booking{
		Address:        booking.Address().String(),
		DriverId:       booking.Driver().String(),
		OwnerId:        booking.Owner().String(),
		Nonce:          booking.Nonce().String(),
		Amount:         booking.Amount().Uint64(),
		Rent:           booking.Rent().Uint64(),
		Status:         booking.Status().String(),
		ListingId:      booking.ListingID(),
		StartUnixUtc:   booking.StartUnixUTC(),
		EndUnixUtc:     booking.EndUnixUTC(),
		MetadataJson:   booking.Metadata().String(),
		CreatedUnixUtc: booking.CreatedUnixUTC(),
	}
}

func normalizeListLimit(limit int32) (int32, error) {
	if limit <= 0 {
		return defaultListLimit, nil
	}
	if limit > maxListLimit {
		return 0, fmt.Errorf("limit exceeds maximum: %d > %d", limit, maxListLimit)
	}
	return limit, nil
}

func mapToGRPCError(source error) error {
	for _, mapping := range errorMappings {
		if errors.Is(source, mapping.target) {
			return status.Error(mapping.code, mapping.message)
		}
	}
	return status.Error(codes.Internal, source.Error())
}

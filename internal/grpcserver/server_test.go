package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/MarkoPoloResearchLab/escrow/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"github.com/glebarez/sqlite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"
)

const bufconnSize = 1 << 20

func TestEscrowServiceRoundTrip(t *testing.T) {
	client, cleanup := startEscrowClient(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := client.Deposit(ctx, &escrowv1.DepositRequest{PartyId: "driver-1", Amount: 1500}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	created, err := client.CreateListing(ctx, &escrowv1.CreateListingRequest{CallerId: "owner-1", Title: "Spot 3", PricePerHour: 500})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	opened, err := client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{
		CallerId:     "driver-1",
		OwnerId:      "owner-1",
		Nonce:        "1",
		Amount:       1000,
		ListingId:    created.GetListing().GetListingId(),
		MetadataJson: `{"plate":"AB-12"}`,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	booking := opened.GetBooking()
	if booking.GetStatus() != escrow.BookingStatusPending.String() || booking.GetAmount() != 1000 {
		t.Fatalf("unexpected opened booking: %+v", booking)
	}

	fetched, err := client.GetBooking(ctx, &escrowv1.GetBookingRequest{Address: booking.GetAddress()})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.GetBooking().GetOwnerId() != "owner-1" {
		t.Fatalf("expected owner-1, got %s", fetched.GetBooking().GetOwnerId())
	}

	listed, err := client.ListBookings(ctx, &escrowv1.ListBookingsRequest{PartyId: "owner-1", Role: "owner"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.GetBookings()) != 1 {
		t.Fatalf("expected 1 owner booking, got %d", len(listed.GetBookings()))
	}

	locator := &escrowv1.ConfirmBookingRequest{
		CallerId: "owner-1",
		Address:  booking.GetAddress(),
		DriverId: "driver-1",
		Nonce:    "1",
	}
	confirmed, err := client.ConfirmBooking(ctx, locator)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.GetOwnerAmount() != 980 || confirmed.GetPlatformFee() != 20 {
		t.Fatalf("expected 980/20, got %d/%d", confirmed.GetOwnerAmount(), confirmed.GetPlatformFee())
	}
	ownerBalance, err := client.GetBalance(ctx, &escrowv1.BalanceRequest{PartyId: "owner-1"})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if ownerBalance.GetAmount() != 980 {
		t.Fatalf("expected owner balance 980, got %d", ownerBalance.GetAmount())
	}

	_, err = client.ConfirmBooking(ctx, locator)
	assertStatus(t, err, codes.NotFound, errorUnknownBooking)

	entries, err := client.ListEntries(ctx, &escrowv1.ListEntriesRequest{PartyId: "driver-1"})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries.GetEntries()) != 2 {
		t.Fatalf("expected deposit and escrow entries for driver, got %d", len(entries.GetEntries()))
	}
}

func TestEscrowServiceErrorMapping(t *testing.T) {
	client, cleanup := startEscrowClient(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := client.Deposit(ctx, &escrowv1.DepositRequest{PartyId: "driver-1", Amount: 100}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	opened, err := client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-1", Nonce: "n", Amount: 60})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	address := opened.GetBooking().GetAddress()

	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-1", Nonce: "n", Amount: 10})
	assertStatus(t, err, codes.AlreadyExists, errorBookingExists)

	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-1", Nonce: "m", Amount: 60})
	assertStatus(t, err, codes.FailedPrecondition, errorInsufficientFunds)

	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-1", Nonce: "z", Amount: 0})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidAmount)

	_, err = client.CancelBooking(ctx, &escrowv1.CancelBookingRequest{CallerId: "stranger", Address: address, DriverId: "driver-1", Nonce: "n"})
	assertStatus(t, err, codes.PermissionDenied, errorUnauthorized)

	_, err = client.ConfirmBooking(ctx, &escrowv1.ConfirmBookingRequest{CallerId: "driver-1", Address: address, DriverId: "driver-1", Nonce: "n"})
	assertStatus(t, err, codes.PermissionDenied, errorUnauthorized)

	_, err = client.CancelBooking(ctx, &escrowv1.CancelBookingRequest{CallerId: "driver-1", Address: address, DriverId: "driver-1", Nonce: "other"})
	assertStatus(t, err, codes.FailedPrecondition, errorAddressMismatch)

	_, err = client.GetBooking(ctx, &escrowv1.GetBookingRequest{Address: "not-a-uuid"})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidAddress)

	_, err = client.ListBookings(ctx, &escrowv1.ListBookingsRequest{PartyId: "driver-1", Role: "renter"})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidFilter)

	_, err = client.ListEntries(ctx, &escrowv1.ListEntriesRequest{PartyId: "driver-1", Limit: maxListLimit + 1})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidListLimit)

	if _, err := client.CancelBooking(ctx, &escrowv1.CancelBookingRequest{CallerId: "owner-1", Address: address, DriverId: "driver-1", Nonce: "n"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	balance, err := client.GetBalance(ctx, &escrowv1.BalanceRequest{PartyId: "driver-1"})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.GetAmount() != 100 {
		t.Fatalf("expected refunded balance 100, got %d", balance.GetAmount())
	}
}

func TestEscrowServiceListings(t *testing.T) {
	client, cleanup := startEscrowClient(t)
	defer cleanup()
	ctx := context.Background()

	created, err := client.CreateListing(ctx, &escrowv1.CreateListingRequest{
		CallerId:      "owner-1",
		Title:         "Covered spot",
		StreetAddress: "12 Harbour Road",
		Latitude:      19.07,
		Longitude:     72.87,
		PricePerHour:  40,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	listingID := created.GetListing().GetListingId()
	if !created.GetListing().GetActive() || created.GetListing().GetOwnerId() != "owner-1" {
		t.Fatalf("unexpected created listing: %+v", created.GetListing())
	}

	_, err = client.CreateListing(ctx, &escrowv1.CreateListingRequest{CallerId: "owner-1", Title: "Free spot"})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidListing)

	_, err = client.UpdateListing(ctx, &escrowv1.UpdateListingRequest{CallerId: "owner-2", ListingId: listingID, Title: "Mine", PricePerHour: 1})
	assertStatus(t, err, codes.PermissionDenied, errorUnauthorized)

	updated, err := client.UpdateListing(ctx, &escrowv1.UpdateListingRequest{CallerId: "owner-1", ListingId: listingID, Title: "Covered spot", PricePerHour: 50})
	if err != nil {
		t.Fatalf("update listing: %v", err)
	}
	if updated.GetListing().PricePerHour != 50 {
		t.Fatalf("expected price 50, got %d", updated.GetListing().PricePerHour)
	}

	favorites, err := client.AddFavorite(ctx, &escrowv1.AddFavoriteRequest{PartyId: "driver-1", ListingId: listingID})
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if len(favorites.GetListingIds()) != 1 || favorites.GetListingIds()[0] != listingID {
		t.Fatalf("unexpected favorites: %v", favorites.GetListingIds())
	}
	_, err = client.AddFavorite(ctx, &escrowv1.AddFavoriteRequest{PartyId: "driver-1", ListingId: "missing"})
	assertStatus(t, err, codes.NotFound, errorUnknownListing)

	if _, err := client.Deposit(ctx, &escrowv1.DepositRequest{PartyId: "driver-1", Amount: 500}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	start := time.Now().UTC().Add(time.Hour).Unix()
	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{
		CallerId: "driver-1", OwnerId: "owner-1", Nonce: "cheap", Amount: 50,
		ListingId: listingID, StartUnixUtc: start, EndUnixUtc: start + 2*3600,
	})
	assertStatus(t, err, codes.FailedPrecondition, errorPriceMismatch)
	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-2", Nonce: "wrong", Amount: 50, ListingId: listingID})
	assertStatus(t, err, codes.FailedPrecondition, errorListingOwner)

	if _, err := client.SetListingActive(ctx, &escrowv1.SetListingActiveRequest{CallerId: "owner-1", ListingId: listingID, Active: false}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	_, err = client.OpenBooking(ctx, &escrowv1.OpenBookingRequest{CallerId: "driver-1", OwnerId: "owner-1", Nonce: "late", Amount: 50, ListingId: listingID})
	assertStatus(t, err, codes.FailedPrecondition, errorListingInactive)

	browse, err := client.ListListings(ctx, &escrowv1.ListListingsRequest{ActiveOnly: true})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(browse.GetListings()) != 0 {
		t.Fatalf("expected no active listings, got %d", len(browse.GetListings()))
	}
	mine, err := client.ListListings(ctx, &escrowv1.ListListingsRequest{OwnerId: "owner-1"})
	if err != nil {
		t.Fatalf("owner listings: %v", err)
	}
	if len(mine.GetListings()) != 1 || mine.GetListings()[0].GetActive() {
		t.Fatalf("expected one withdrawn listing for owner, got %+v", mine.GetListings())
	}
	_, err = client.ListListings(ctx, &escrowv1.ListListingsRequest{})
	assertStatus(t, err, codes.InvalidArgument, errorInvalidFilter)

	_, err = client.GetListing(ctx, &escrowv1.GetListingRequest{ListingId: "missing"})
	assertStatus(t, err, codes.NotFound, errorUnknownListing)

	removed, err := client.RemoveFavorite(ctx, &escrowv1.RemoveFavoriteRequest{PartyId: "driver-1", ListingId: listingID})
	if err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	if len(removed.GetListingIds()) != 0 {
		t.Fatalf("expected no favorites, got %v", removed.GetListingIds())
	}
	listed, err := client.ListFavorites(ctx, &escrowv1.ListFavoritesRequest{PartyId: "driver-1"})
	if err != nil || len(listed.GetListingIds()) != 0 {
		t.Fatalf("expected empty favorites, got %v (%v)", listed.GetListingIds(), err)
	}
}

func TestMapToGRPCError(t *testing.T) {
	testCases := []struct {
		name    string
		source  error
		code    codes.Code
		message string
	}{
		{name: "wrapped insufficient funds", source: escrow.WrapError("store", "balance", "debit", escrow.ErrInsufficientFunds), code: codes.FailedPrecondition, message: errorInsufficientFunds},
		{name: "overflow", source: fmt.Errorf("%w: add", escrow.ErrArithmeticOverflow), code: codes.OutOfRange, message: errorArithmeticOverflow},
		{name: "invalid state", source: escrow.ErrInvalidState, code: codes.FailedPrecondition, message: errorInvalidState},
		{name: "invalid party", source: escrow.ErrInvalidParty, code: codes.InvalidArgument, message: errorInvalidParty},
		{name: "wrapped unknown listing", source: escrow.WrapError("store", "listing", "get", escrow.ErrUnknownListing), code: codes.NotFound, message: errorUnknownListing},
		{name: "price mismatch", source: fmt.Errorf("%w: window", escrow.ErrPriceMismatch), code: codes.FailedPrecondition, message: errorPriceMismatch},
		{name: "unknown", source: errors.New("disk on fire"), code: codes.Internal, message: "disk on fire"},
	}
	for _, testCase := range testCases {
		assertStatus(t, mapToGRPCError(testCase.source), testCase.code, testCase.message)
	}
}

func assertStatus(t *testing.T, err error, code codes.Code, message string) {
	t.Helper()
	statusInfo, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status error, got %v", err)
	}
	if statusInfo.Code() != code || statusInfo.Message() != message {
		t.Fatalf("expected %s/%s, got %s/%s", code, message, statusInfo.Code(), statusInfo.Message())
	}
}

func startEscrowClient(t *testing.T) (escrowv1.EscrowServiceClient, func()) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/escrow.db"), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate failed: %v", err)
	}
	platform, err := escrow.NewPartyID("platform")
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	service, err := escrow.NewService(gormstore.New(db), func() int64 { return time.Now().UTC().Unix() }, platform)
	if err != nil {
		t.Fatalf("escrow service init failed: %v", err)
	}

	listener := bufconn.Listen(bufconnSize)
	grpcServer := grpc.NewServer()
	escrowv1.RegisterEscrowServiceServer(grpcServer, NewEscrowServiceServer(service))

	go func() {
		if serveErr := grpcServer.Serve(listener); serveErr != nil {
			t.Logf("gRPC server error: %v", serveErr)
		}
	}()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.Dial()
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("gRPC client init failed: %v", err)
	}
	conn.Connect()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := waitForReady(waitCtx, conn); err != nil {
		t.Fatalf("gRPC client failed to connect: %v", err)
	}

	cleanup := func() {
		grpcServer.Stop()
		_ = conn.Close()
	}
	return escrowv1.NewEscrowServiceClient(conn), cleanup
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
}

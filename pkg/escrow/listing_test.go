package escrow

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNewListingValidation(test *testing.T) {
	test.Parallel()
	owner := mustParty(test, testOwnerValue)
	valid := ListingDetails{Title: " Garage bay ", PricePerHour: 40, Latitude: 10, Longitude: 20}
	testCases := []struct {
		name    string
		mutate  func(*ListingParams)
		wantErr error
	}{
		{name: "valid", mutate: func(*ListingParams) {}},
		{name: "missing id", mutate: func(params *ListingParams) { params.ID = ListingID{} }, wantErr: ErrInvalidListing},
		{name: "missing owner", mutate: func(params *ListingParams) { params.Owner = PartyID{} }, wantErr: ErrInvalidParty},
		{name: "blank title", mutate: func(params *ListingParams) { params.Details.Title = "  " }, wantErr: ErrInvalidListing},
		{name: "zero price", mutate: func(params *ListingParams) { params.Details.PricePerHour = 0 }, wantErr: ErrInvalidListing},
		{name: "latitude out of range", mutate: func(params *ListingParams) { params.Details.Latitude = 91 }, wantErr: ErrInvalidListing},
		{name: "longitude out of range", mutate: func(params *ListingParams) { params.Details.Longitude = -181 }, wantErr: ErrInvalidListing},
		{name: "nan latitude", mutate: func(params *ListingParams) { params.Details.Latitude = math.NaN() }, wantErr: ErrInvalidListing},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			params := ListingParams{ID: generateListingID(), Owner: owner, Details: valid, Active: true}
			testCase.mutate(&params)
			listing, err := NewListing(params)
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					test.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("unexpected error: %v", err)
			}
			if listing.Title() != "Garage bay" {
				test.Fatalf("expected trimmed title, got %q", listing.Title())
			}
		})
	}
}

func TestListingQuote(test *testing.T) {
	test.Parallel()
	listing, err := NewListing(ListingParams{
		ID:      generateListingID(),
		Owner:   mustParty(test, testOwnerValue),
		Details: ListingDetails{Title: "Spot", PricePerHour: 50},
	})
	if err != nil {
		test.Fatalf("listing: %v", err)
	}
	testCases := []struct {
		name    string
		start   int64
		end     int64
		want    Amount
		wantErr error
	}{
		{name: "exact hours", start: 0, end: 2 * secondsPerHour, want: 100},
		{name: "started hour is charged", start: 100, end: 100 + secondsPerHour + 1, want: 100},
		{name: "one minute", start: 0, end: 60, want: 50},
		{name: "empty window", start: 10, end: 10, wantErr: ErrInvalidWindow},
		{name: "reversed window", start: 10, end: 5, wantErr: ErrInvalidWindow},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			quote, err := listing.Quote(testCase.start, testCase.end)
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					test.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
				return
			}
			if err != nil || quote != testCase.want {
				test.Fatalf("expected %d, got %d (%v)", testCase.want, quote, err)
			}
		})
	}

	expensive, err := NewListing(ListingParams{
		ID:      generateListingID(),
		Owner:   mustParty(test, testOwnerValue),
		Details: ListingDetails{Title: "Spot", PricePerHour: math.MaxUint64},
	})
	if err != nil {
		test.Fatalf("listing: %v", err)
	}
	if _, err := expensive.Quote(0, 2*secondsPerHour); !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestNewListingFilter(test *testing.T) {
	test.Parallel()
	owner := mustParty(test, testOwnerValue)
	if _, err := NewListingFilter(PartyID{}, false, 10); !errors.Is(err, ErrInvalidFilter) {
		test.Fatalf("expected ErrInvalidFilter for unscoped filter, got %v", err)
	}
	if _, err := NewListingFilter(owner, false, 0); !errors.Is(err, ErrInvalidFilter) {
		test.Fatalf("expected ErrInvalidFilter for zero limit, got %v", err)
	}
	browse, err := NewListingFilter(PartyID{}, true, 5)
	if err != nil {
		test.Fatalf("browse filter: %v", err)
	}
	inactive, err := NewListing(ListingParams{ID: generateListingID(), Owner: owner, Details: ListingDetails{Title: "Spot", PricePerHour: 1}})
	if err != nil {
		test.Fatalf("listing: %v", err)
	}
	if browse.Matches(inactive) {
		test.Fatalf("expected browse filter to skip inactive listings")
	}
	mine, err := NewListingFilter(owner, false, 5)
	if err != nil {
		test.Fatalf("owner filter: %v", err)
	}
	if !mine.Matches(inactive) {
		test.Fatalf("expected owner filter to include inactive listings")
	}
}

func TestListingLifecycle(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	store := newStubStore(test)
	service := mustNewService(test, store, WithOperationLogger(logger))
	owner := mustParty(test, testOwnerValue)
	stranger := mustParty(test, testStrangerValue)
	ctx := context.Background()

	listing := mustListing(test, service, owner, 40)
	if !listing.Active() || listing.CreatedUnixUTC() != testClockUnix {
		test.Fatalf("unexpected new listing: %+v", listing)
	}

	if _, err := service.UpdateListing(ctx, stranger, listing.ID(), ListingDetails{Title: "Mine now", PricePerHour: 1}); !errors.Is(err, ErrUnauthorized) {
		test.Fatalf("expected ErrUnauthorized for stranger edit, got %v", err)
	}
	if _, err := service.UpdateListing(ctx, owner, listing.ID(), ListingDetails{Title: "", PricePerHour: 1}); !errors.Is(err, ErrInvalidListing) {
		test.Fatalf("expected ErrInvalidListing for blank title, got %v", err)
	}
	updated, err := service.UpdateListing(ctx, owner, listing.ID(), ListingDetails{Title: "Covered spot B", PricePerHour: 55})
	if err != nil {
		test.Fatalf("update: %v", err)
	}
	if updated.PricePerHour() != 55 || updated.Title() != "Covered spot B" {
		test.Fatalf("unexpected updated listing: %+v", updated)
	}

	withdrawn, err := service.SetListingActive(ctx, owner, listing.ID(), false)
	if err != nil {
		test.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Active() {
		test.Fatalf("expected listing to be withdrawn")
	}
	browse, err := NewListingFilter(PartyID{}, true, 10)
	if err != nil {
		test.Fatalf("filter: %v", err)
	}
	active, err := service.ListListings(ctx, browse)
	if err != nil {
		test.Fatalf("browse: %v", err)
	}
	if len(active) != 0 {
		test.Fatalf("expected withdrawn listing to be hidden from browsing, got %d", len(active))
	}
	fetched, err := service.GetListing(ctx, listing.ID())
	if err != nil || fetched.Active() {
		test.Fatalf("expected withdrawn listing to stay readable, got %+v (%v)", fetched, err)
	}
	if _, err := service.GetListing(ctx, generateListingID()); !errors.Is(err, ErrUnknownListing) {
		test.Fatalf("expected ErrUnknownListing, got %v", err)
	}

	entries := logger.snapshot()
	if len(entries) != 5 || entries[0].Operation != operationCreateListing || entries[0].Listing != listing.ID() {
		test.Fatalf("unexpected listing log entries: %+v", entries)
	}
}

func TestFavorites(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	owner := mustParty(test, testOwnerValue)
	driver := mustParty(test, testDriverValue)
	ctx := context.Background()
	first := mustListing(test, service, owner, 10)
	second := mustListing(test, service, owner, 20)

	if _, err := service.AddFavorite(ctx, driver, generateListingID()); !errors.Is(err, ErrUnknownListing) {
		test.Fatalf("expected ErrUnknownListing, got %v", err)
	}
	for _, id := range []ListingID{first.ID(), second.ID(), first.ID()} {
		if _, err := service.AddFavorite(ctx, driver, id); err != nil {
			test.Fatalf("add favorite: %v", err)
		}
	}
	favorites, err := service.Favorites(ctx, driver)
	if err != nil {
		test.Fatalf("favorites: %v", err)
	}
	if len(favorites) != 2 || favorites[0] != first.ID() || favorites[1] != second.ID() {
		test.Fatalf("expected [first second], got %v", favorites)
	}
	remaining, err := service.RemoveFavorite(ctx, driver, first.ID())
	if err != nil {
		test.Fatalf("remove favorite: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != second.ID() {
		test.Fatalf("expected [second], got %v", remaining)
	}
	if _, err := service.RemoveFavorite(ctx, driver, first.ID()); err != nil {
		test.Fatalf("expected repeated removal to succeed, got %v", err)
	}
}

func TestOpenChecksListing(test *testing.T) {
	test.Parallel()
	owner := mustParty(test, testOwnerValue)
	otherOwner := mustParty(test, "owner-2")
	driver := mustParty(test, testDriverValue)
	start := testClockUnix + secondsPerHour
	testCases := []struct {
		name    string
		setup   func(test *testing.T, service *Service) OpenRequest
		wantErr error
	}{
		{
			name: "priced window",
			setup: func(test *testing.T, service *Service) OpenRequest {
				listing := mustListing(test, service, owner, 40)
				return OpenRequest{Owner: owner, Amount: 120, ListingID: listing.ID().String(), StartUnixUTC: start, EndUnixUTC: start + 3*secondsPerHour}
			},
		},
		{
			name: "open ended booking skips pricing",
			setup: func(test *testing.T, service *Service) OpenRequest {
				listing := mustListing(test, service, owner, 40)
				return OpenRequest{Owner: owner, Amount: 7, ListingID: listing.ID().String()}
			},
		},
		{
			name: "unknown listing",
			setup: func(test *testing.T, service *Service) OpenRequest {
				return OpenRequest{Owner: owner, Amount: 40, ListingID: "spot-404"}
			},
			wantErr: ErrUnknownListing,
		},
		{
			name: "owner mismatch",
			setup: func(test *testing.T, service *Service) OpenRequest {
				listing := mustListing(test, service, otherOwner, 40)
				return OpenRequest{Owner: owner, Amount: 40, ListingID: listing.ID().String(), StartUnixUTC: start, EndUnixUTC: start + secondsPerHour}
			},
			wantErr: ErrListingOwnerMismatch,
		},
		{
			name: "withdrawn listing",
			setup: func(test *testing.T, service *Service) OpenRequest {
				listing := mustListing(test, service, owner, 40)
				if _, err := service.SetListingActive(context.Background(), owner, listing.ID(), false); err != nil {
					test.Fatalf("withdraw: %v", err)
				}
				return OpenRequest{Owner: owner, Amount: 40, ListingID: listing.ID().String()}
			},
			wantErr: ErrListingInactive,
		},
		{
			name: "underpriced window",
			setup: func(test *testing.T, service *Service) OpenRequest {
				listing := mustListing(test, service, owner, 40)
				return OpenRequest{Owner: owner, Amount: 79, ListingID: listing.ID().String(), StartUnixUTC: start, EndUnixUTC: start + 2*secondsPerHour}
			},
			wantErr: ErrPriceMismatch,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			service := mustNewService(test, store)
			store.setBalance(PartyAccount(driver), 1000)
			request := testCase.setup(test, service)
			request.Nonce = mustNonce(test, "1")

			booking, err := service.Open(context.Background(), driver, request)
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					test.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
				if store.balance(PartyAccount(driver)) != 1000 {
					test.Fatalf("expected rejected open to leave the driver balance untouched")
				}
				return
			}
			if err != nil {
				test.Fatalf("open: %v", err)
			}
			if booking.ListingID() != request.ListingID {
				test.Fatalf("expected listing %s on booking, got %s", request.ListingID, booking.ListingID())
			}
			if store.balance(EscrowAccount(booking.Address())) != request.Amount {
				test.Fatalf("expected %d escrowed", request.Amount)
			}
		})
	}
}

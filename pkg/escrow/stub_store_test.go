package escrow

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
)

const (
	testPlatformValue = "platform"
	testDriverValue   = "driver-1"
	testOwnerValue    = "owner-1"
	testStrangerValue = "stranger-1"
	testClockUnix     = int64(1_700_000_000)
)

type stubState struct {
	balances  map[AccountID]Amount
	bookings  map[BookingAddress]Booking
	entries   []Entry
	listings  map[ListingID]Listing
	favorites map[PartyID][]ListingID
}

func (state *stubState) clone() *stubState {
	cloned := &stubState{
		balances:  make(map[AccountID]Amount, len(state.balances)),
		bookings:  make(map[BookingAddress]Booking, len(state.bookings)),
		entries:   append([]Entry(nil), state.entries...),
		listings:  make(map[ListingID]Listing, len(state.listings)),
		favorites: make(map[PartyID][]ListingID, len(state.favorites)),
	}
	for id, listing := range state.listings {
		cloned.listings[id] = listing
	}
	for party, favorites := range state.favorites {
		cloned.favorites[party] = append([]ListingID(nil), favorites...)
	}
	for account, balance := range state.balances {
		cloned.balances[account] = balance
	}
	for address, booking := range state.bookings {
		cloned.bookings[address] = booking
	}
	return cloned
}

type stubFailures struct {
	balanceError        error
	createBookingError  error
	getBookingError     error
	updateStatusError   error
	deleteBookingError  error
	transferError       error
	transferErrorAtCall int
	creditError         error
	listBookingsError   error
	listEntriesError    error
}

type stubStore struct {
	mutex         *sync.Mutex
	state         *stubState
	inTransaction bool
	failures      *stubFailures
	transferCalls *int
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	transferCalls := 0
	return &stubStore{
		mutex: &sync.Mutex{},
		state: &stubState{
			balances:  make(map[AccountID]Amount),
			bookings:  make(map[BookingAddress]Booking),
			listings:  make(map[ListingID]Listing),
			favorites: make(map[PartyID][]ListingID),
		},
		failures:      &stubFailures{},
		transferCalls: &transferCalls,
	}
}

func (store *stubStore) lock() func() {
	if store.inTransaction {
		return func() {}
	}
	store.mutex.Lock()
	return store.mutex.Unlock
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	if store.inTransaction {
		return fn(ctx, store)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transactionStore := &stubStore{
		mutex:         store.mutex,
		state:         store.state.clone(),
		inTransaction: true,
		failures:      store.failures,
		transferCalls: store.transferCalls,
	}
	if err := fn(ctx, transactionStore); err != nil {
		return err
	}
	store.state = transactionStore.state
	return nil
}

func (store *stubStore) BalanceOf(_ context.Context, account AccountID) (Amount, error) {
	unlock := store.lock()
	defer unlock()
	if store.failures.balanceError != nil {
		return 0, store.failures.balanceError
	}
	return store.state.balances[account], nil
}

func (store *stubStore) Credit(_ context.Context, transfer Transfer) error {
	unlock := store.lock()
	defer unlock()
	if store.failures.creditError != nil {
		return store.failures.creditError
	}
	credited, err := AddAmounts(store.state.balances[transfer.To], transfer.Amount)
	if err != nil {
		return err
	}
	store.state.balances[transfer.To] = credited
	store.appendEntry(transfer)
	return nil
}

func (store *stubStore) Transfer(_ context.Context, transfer Transfer) error {
	unlock := store.lock()
	defer unlock()
	*store.transferCalls++
	if store.failures.transferError != nil && (store.failures.transferErrorAtCall == 0 || store.failures.transferErrorAtCall == *store.transferCalls) {
		return store.failures.transferError
	}
	debited, err := SubAmounts(store.state.balances[transfer.From], transfer.Amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	credited, err := AddAmounts(store.state.balances[transfer.To], transfer.Amount)
	if err != nil {
		return err
	}
	store.state.balances[transfer.From] = debited
	store.state.balances[transfer.To] = credited
	store.appendEntry(transfer)
	return nil
}

func (store *stubStore) appendEntry(transfer Transfer) {
	entryID, _ := NewEntryID(uuid.NewString())
	store.state.entries = append(store.state.entries, Entry{
		EntryID:        entryID,
		From:           transfer.From,
		To:             transfer.To,
		Kind:           transfer.Kind,
		Amount:         transfer.Amount,
		BookingAddress: transfer.BookingAddress,
		CreatedUnixUTC: transfer.CreatedUnixUTC,
	})
}

func (store *stubStore) CreateBooking(_ context.Context, booking Booking) error {
	unlock := store.lock()
	defer unlock()
	if store.failures.createBookingError != nil {
		return store.failures.createBookingError
	}
	if _, exists := store.state.bookings[booking.Address()]; exists {
		return ErrBookingExists
	}
	store.state.bookings[booking.Address()] = booking
	return nil
}

func (store *stubStore) GetBooking(_ context.Context, address BookingAddress) (Booking, error) {
	unlock := store.lock()
	defer unlock()
	if store.failures.getBookingError != nil {
		return Booking{}, store.failures.getBookingError
	}
	booking, exists := store.state.bookings[address]
	if !exists {
		return Booking{}, ErrUnknownBooking
	}
	return booking, nil
}

func (store *stubStore) UpdateBookingStatus(_ context.Context, address BookingAddress, from, to BookingStatus) error {
	unlock := store.lock()
	defer unlock()
	if store.failures.updateStatusError != nil {
		return store.failures.updateStatusError
	}
	booking, exists := store.state.bookings[address]
	if !exists {
		return ErrUnknownBooking
	}
	if booking.Status() != from {
		return ErrInvalidState
	}
	store.state.bookings[address] = booking.withStatus(to)
	return nil
}

func (store *stubStore) DeleteBooking(_ context.Context, address BookingAddress) error {
	unlock := store.lock()
	defer unlock()
	if store.failures.deleteBookingError != nil {
		return store.failures.deleteBookingError
	}
	if _, exists := store.state.bookings[address]; !exists {
		return ErrUnknownBooking
	}
	delete(store.state.bookings, address)
	return nil
}

func (store *stubStore) ListBookings(_ context.Context, filter BookingFilter) ([]Booking, error) {
	unlock := store.lock()
	defer unlock()
	if store.failures.listBookingsError != nil {
		return nil, store.failures.listBookingsError
	}
	bookings := make([]Booking, 0)
	for _, booking := range store.state.bookings {
		party := booking.Driver()
		if filter.Role == RoleOwner {
			party = booking.Owner()
		}
		if party == filter.Party {
			bookings = append(bookings, booking)
		}
	}
	sort.Slice(bookings, func(left, right int) bool {
		if bookings[left].CreatedUnixUTC() == bookings[right].CreatedUnixUTC() {
			return bookings[left].Address().String() < bookings[right].Address().String()
		}
		return bookings[left].CreatedUnixUTC() > bookings[right].CreatedUnixUTC()
	})
	if len(bookings) > filter.Limit {
		bookings = bookings[:filter.Limit]
	}
	return bookings, nil
}

func (store *stubStore) ListEntries(_ context.Context, account AccountID, beforeUnixUTC int64, limit int) ([]Entry, error) {
	unlock := store.lock()
	defer unlock()
	if store.failures.listEntriesError != nil {
		return nil, store.failures.listEntriesError
	}
	entries := make([]Entry, 0)
	for index := len(store.state.entries) - 1; index >= 0 && len(entries) < limit; index-- {
		entry := store.state.entries[index]
		if entry.CreatedUnixUTC >= beforeUnixUTC {
			continue
		}
		if entry.From == account || entry.To == account {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (store *stubStore) CreateListing(_ context.Context, listing Listing) error {
	unlock := store.lock()
	defer unlock()
	if _, exists := store.state.listings[listing.ID()]; exists {
		return ErrInvalidListing
	}
	store.state.listings[listing.ID()] = listing
	return nil
}

func (store *stubStore) GetListing(_ context.Context, id ListingID) (Listing, error) {
	unlock := store.lock()
	defer unlock()
	listing, exists := store.state.listings[id]
	if !exists {
		return Listing{}, ErrUnknownListing
	}
	return listing, nil
}

func (store *stubStore) UpdateListing(_ context.Context, listing Listing) error {
	unlock := store.lock()
	defer unlock()
	if _, exists := store.state.listings[listing.ID()]; !exists {
		return ErrUnknownListing
	}
	store.state.listings[listing.ID()] = listing
	return nil
}

func (store *stubStore) ListListings(_ context.Context, filter ListingFilter) ([]Listing, error) {
	unlock := store.lock()
	defer unlock()
	listings := make([]Listing, 0)
	for _, listing := range store.state.listings {
		if filter.Matches(listing) {
			listings = append(listings, listing)
		}
	}
	sort.Slice(listings, func(left, right int) bool {
		if listings[left].CreatedUnixUTC() == listings[right].CreatedUnixUTC() {
			return listings[left].ID().String() < listings[right].ID().String()
		}
		return listings[left].CreatedUnixUTC() > listings[right].CreatedUnixUTC()
	})
	if len(listings) > filter.Limit {
		listings = listings[:filter.Limit]
	}
	return listings, nil
}

func (store *stubStore) AddFavorite(_ context.Context, party PartyID, id ListingID, _ int64) error {
	unlock := store.lock()
	defer unlock()
	for _, existing := range store.state.favorites[party] {
		if existing == id {
			return nil
		}
	}
	store.state.favorites[party] = append(store.state.favorites[party], id)
	return nil
}

func (store *stubStore) RemoveFavorite(_ context.Context, party PartyID, id ListingID) error {
	unlock := store.lock()
	defer unlock()
	kept := make([]ListingID, 0, len(store.state.favorites[party]))
	for _, existing := range store.state.favorites[party] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	store.state.favorites[party] = kept
	return nil
}

func (store *stubStore) ListFavorites(_ context.Context, party PartyID) ([]ListingID, error) {
	unlock := store.lock()
	defer unlock()
	return append([]ListingID{}, store.state.favorites[party]...), nil
}

func (store *stubStore) balance(account AccountID) Amount {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.balances[account]
}

func (store *stubStore) setBalance(account AccountID, amount Amount) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state.balances[account] = amount
}

func (store *stubStore) putBooking(address BookingAddress, booking Booking) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state.bookings[address] = booking
}

func (store *stubStore) hasBooking(address BookingAddress) bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	_, exists := store.state.bookings[address]
	return exists
}

func (store *stubStore) totalBalance() Amount {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var total Amount
	for _, balance := range store.state.balances {
		total += balance
	}
	return total
}

func (store *stubStore) entriesOfKind(kind EntryKind) []Entry {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	matching := make([]Entry, 0)
	for _, entry := range store.state.entries {
		if entry.Kind == kind {
			matching = append(matching, entry)
		}
	}
	return matching
}

func mustParty(test *testing.T, raw string) PartyID {
	test.Helper()
	party, err := NewPartyID(raw)
	if err != nil {
		test.Fatalf("party id: %v", err)
	}
	return party
}

func mustNonce(test *testing.T, raw string) Nonce {
	test.Helper()
	nonce, err := NewNonce(raw)
	if err != nil {
		test.Fatalf("nonce: %v", err)
	}
	return nonce
}

func mustMetadata(test *testing.T, raw string) MetadataJSON {
	test.Helper()
	metadata, err := NewMetadataJSON(raw)
	if err != nil {
		test.Fatalf("metadata: %v", err)
	}
	return metadata
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return testClockUnix }, mustParty(test, testPlatformValue), options...)
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	return service
}

func mustLocator(test *testing.T, booking Booking) BookingLocator {
	test.Helper()
	locator, err := NewBookingLocator(booking.Address(), booking.Driver(), booking.Nonce())
	if err != nil {
		test.Fatalf("locator: %v", err)
	}
	return locator
}

func mustPendingBooking(test *testing.T, driver PartyID, owner PartyID, nonce string, amount Amount) Booking {
	test.Helper()
	booking, err := NewBooking(BookingParams{
		Driver:         driver,
		Owner:          owner,
		Nonce:          mustNonce(test, nonce),
		Amount:         amount,
		Status:         BookingStatusPending,
		CreatedUnixUTC: testClockUnix,
	})
	if err != nil {
		test.Fatalf("booking: %v", err)
	}
	return booking
}

func mustListing(test *testing.T, service *Service, owner PartyID, pricePerHour Amount) Listing {
	test.Helper()
	listing, err := service.CreateListing(context.Background(), owner, ListingDetails{
		Title:         "Covered spot",
		StreetAddress: "12 Harbour Road",
		Latitude:      19.07,
		Longitude:     72.87,
		PricePerHour:  pricePerHour,
	})
	if err != nil {
		test.Fatalf("create listing: %v", err)
	}
	return listing
}

func mustOpen(test *testing.T, service *Service, driver PartyID, owner PartyID, nonce string, amount Amount) Booking {
	test.Helper()
	booking, err := service.Open(context.Background(), driver, OpenRequest{
		Owner:  owner,
		Nonce:  mustNonce(test, nonce),
		Amount: amount,
	})
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	return booking
}

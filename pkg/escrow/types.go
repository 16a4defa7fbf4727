package escrow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Amount is an unsigned quantity of the ledger's single unit of value.
type Amount uint64

// Uint64 returns the raw value.
func (amount Amount) Uint64() uint64 {
	return uint64(amount)
}

// Storable returns the amount as a signed 64-bit value for persistence layers.
func (amount Amount) Storable() (int64, error) {
	if uint64(amount) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d exceeds storable range", ErrArithmeticOverflow, amount)
	}
	return int64(amount), nil
}

// NewAmount validates a positive deposit amount.
func NewAmount(raw uint64) (Amount, error) {
	if raw == 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return Amount(raw), nil
}

// AmountFromStorable converts a persisted value back into an Amount.
func AmountFromStorable(raw int64) (Amount, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: negative stored amount %d", ErrArithmeticOverflow, raw)
	}
	return Amount(raw), nil
}

// PartyID identifies an externally-owned participant (driver, owner, platform).
type PartyID struct {
	value string
}

// NewPartyID validates and normalizes a party id.
func NewPartyID(raw string) (PartyID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PartyID{}, fmt.Errorf("%w: empty value", ErrInvalidPartyID)
	}
	if strings.Contains(trimmed, addressSeparator) {
		return PartyID{}, fmt.Errorf("%w: contains separator byte", ErrInvalidPartyID)
	}
	return PartyID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PartyID) String() string {
	return id.value
}

// IsZero reports whether the id was never set.
func (id PartyID) IsZero() bool {
	return id.value == ""
}

// Nonce discriminates independent bookings opened by the same driver.
type Nonce struct {
	value string
}

// NewNonce validates and normalizes a nonce.
func NewNonce(raw string) (Nonce, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Nonce{}, fmt.Errorf("%w: empty value", ErrInvalidNonce)
	}
	return Nonce{value: trimmed}, nil
}

// String returns the normalized nonce.
func (nonce Nonce) String() string {
	return nonce.value
}

// MetadataJSON stores arbitrary booking metadata.
type MetadataJSON struct {
	value string
}

// NewMetadataJSON validates metadata string (defaulting to "{}" for empty inputs).
func NewMetadataJSON(raw string) (MetadataJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return MetadataJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidMetadataJSON)
	}
	return MetadataJSON{value: normalized}, nil
}

// String returns the normalized JSON blob.
func (metadata MetadataJSON) String() string {
	if metadata.value == "" {
		return "{}"
	}
	return metadata.value
}

// AccountID addresses a balance held by the custody store.
type AccountID struct {
	value string
}

// PartyAccount returns the free-balance account of a party.
func PartyAccount(party PartyID) AccountID {
	return AccountID{value: accountPrefixParty + party.String()}
}

// EscrowAccount returns the account holding a booking's escrowed funds.
func EscrowAccount(address BookingAddress) AccountID {
	return AccountID{value: accountPrefixEscrow + address.String()}
}

// RentAccount returns the account holding a booking record's storage deposit.
func RentAccount(address BookingAddress) AccountID {
	return AccountID{value: accountPrefixRent + address.String()}
}

// ParseAccountID validates a persisted account id.
func ParseAccountID(raw string) (AccountID, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, accountPrefixParty) && len(trimmed) > len(accountPrefixParty):
		return AccountID{value: trimmed}, nil
	case strings.HasPrefix(trimmed, accountPrefixEscrow):
		if _, err := NewBookingAddress(strings.TrimPrefix(trimmed, accountPrefixEscrow)); err != nil {
			return AccountID{}, fmt.Errorf("%w: %v", ErrInvalidAccountID, err)
		}
		return AccountID{value: trimmed}, nil
	case strings.HasPrefix(trimmed, accountPrefixRent):
		if _, err := NewBookingAddress(strings.TrimPrefix(trimmed, accountPrefixRent)); err != nil {
			return AccountID{}, fmt.Errorf("%w: %v", ErrInvalidAccountID, err)
		}
		return AccountID{value: trimmed}, nil
	}
	return AccountID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, raw)
}

// String returns the account key.
func (id AccountID) String() string {
	return id.value
}

// IsZero reports whether the id was never set.
func (id AccountID) IsZero() bool {
	return id.value == ""
}

// EntryID identifies a journal entry.
type EntryID struct {
	value string
}

// NewEntryID validates a journal entry id.
func NewEntryID(raw string) (EntryID, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return EntryID{}, fmt.Errorf("%w: %v", ErrInvalidEntryID, err)
	}
	return EntryID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id EntryID) String() string {
	return id.value
}

// EntryKind enumerates journal entry kinds.
type EntryKind string

const (
	EntryDeposit    EntryKind = "deposit"
	EntryEscrow     EntryKind = "escrow"
	EntryRent       EntryKind = "rent"
	EntryPayout     EntryKind = "payout"
	EntryFee        EntryKind = "fee"
	EntryRefund     EntryKind = "refund"
	EntryRentReturn EntryKind = "rent_return"
)

// ParseEntryKind validates a persisted entry kind.
func ParseEntryKind(raw string) (EntryKind, error) {
	switch kind := EntryKind(strings.TrimSpace(raw)); kind {
	case EntryDeposit, EntryEscrow, EntryRent, EntryPayout, EntryFee, EntryRefund, EntryRentReturn:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEntryKind, raw)
}

// String returns the stored representation.
func (kind EntryKind) String() string {
	return string(kind)
}

// Transfer describes one balance movement. From is zero for deposits.
type Transfer struct {
	From           AccountID
	To             AccountID
	Kind           EntryKind
	Amount         Amount
	BookingAddress BookingAddress
	CreatedUnixUTC int64
}

// Entry is a single immutable line of the custody journal.
type Entry struct {
	EntryID        EntryID
	From           AccountID
	To             AccountID
	Kind           EntryKind
	Amount         Amount
	BookingAddress BookingAddress
	CreatedUnixUTC int64
}

// BookingRole selects which side of a booking a listing filters on.
type BookingRole string

const (
	RoleDriver BookingRole = "driver"
	RoleOwner  BookingRole = "owner"
)

// BookingFilter narrows a booking listing to one party in one role.
type BookingFilter struct {
	Role  BookingRole
	Party PartyID
	Limit int
}

// NewBookingFilter validates a listing filter.
func NewBookingFilter(role BookingRole, party PartyID, limit int) (BookingFilter, error) {
	if role != RoleDriver && role != RoleOwner {
		return BookingFilter{}, fmt.Errorf("%w: unknown role %q", ErrInvalidFilter, role)
	}
	if party.IsZero() {
		return BookingFilter{}, fmt.Errorf("%w: party is required", ErrInvalidFilter)
	}
	if limit <= 0 {
		return BookingFilter{}, fmt.Errorf("%w: limit must be positive", ErrInvalidFilter)
	}
	return BookingFilter{Role: role, Party: party, Limit: limit}, nil
}

// Store is the custody and persistence contract used by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	BalanceOf(ctx context.Context, account AccountID) (Amount, error)
	// Credit adds value to transfer.To without a source account.
	Credit(ctx context.Context, transfer Transfer) error
	// Transfer atomically debits From and credits To, failing with ErrInsufficientFunds
	// or ErrArithmeticOverflow without any partial effect.
	Transfer(ctx context.Context, transfer Transfer) error
	CreateBooking(ctx context.Context, booking Booking) error
	// GetBooking reads a booking and locks it for the enclosing transaction.
	GetBooking(ctx context.Context, address BookingAddress) (Booking, error)
	UpdateBookingStatus(ctx context.Context, address BookingAddress, from, to BookingStatus) error
	DeleteBooking(ctx context.Context, address BookingAddress) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	ListEntries(ctx context.Context, account AccountID, beforeUnixUTC int64, limit int) ([]Entry, error)
	CreateListing(ctx context.Context, listing Listing) error
	// GetListing reads a listing and locks it for the enclosing transaction.
	GetListing(ctx context.Context, id ListingID) (Listing, error)
	UpdateListing(ctx context.Context, listing Listing) error
	// ListListings returns matching listings, newest first.
	ListListings(ctx context.Context, filter ListingFilter) ([]Listing, error)
	// AddFavorite and RemoveFavorite are idempotent.
	AddFavorite(ctx context.Context, party PartyID, id ListingID, createdUnixUTC int64) error
	RemoveFavorite(ctx context.Context, party PartyID, id ListingID) error
	// ListFavorites returns a party's favorite listing ids, oldest first.
	ListFavorites(ctx context.Context, party PartyID) ([]ListingID, error)
}

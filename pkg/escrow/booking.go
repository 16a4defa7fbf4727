package escrow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// bookingNamespace seeds UUIDv5 booking address derivation.
var bookingNamespace = uuid.MustParse("5b0c7f2e-3d1a-5e8b-9c4f-2a6d8e1b7c30")

// BookingAddress is the storage location of a booking, derived from (driver, nonce).
type BookingAddress struct {
	value string
}

// NewBookingAddress validates a supplied address.
func NewBookingAddress(raw string) (BookingAddress, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return BookingAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return BookingAddress{value: parsed.String()}, nil
}

// DeriveAddress computes the address of the booking slot owned by (driver, nonce).
func DeriveAddress(driver PartyID, nonce Nonce) BookingAddress {
	seed := driver.String() + addressSeparator + nonce.String()
	return BookingAddress{value: uuid.NewSHA1(bookingNamespace, []byte(seed)).String()}
}

// String returns the canonical address.
func (address BookingAddress) String() string {
	return address.value
}

// IsZero reports whether the address was never set.
func (address BookingAddress) IsZero() bool {
	return address.value == ""
}

// BookingStatus defines the booking lifecycle.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus validates a persisted status.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch status := BookingStatus(strings.TrimSpace(raw)); status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// String returns the stored representation.
func (status BookingStatus) String() string {
	return string(status)
}

// IsTerminal reports whether no transition leaves this status.
func (status BookingStatus) IsTerminal() bool {
	return status == BookingStatusConfirmed || status == BookingStatusCancelled
}

// canTransition enforces pending -> confirmed | cancelled and nothing else.
func (status BookingStatus) canTransition(next BookingStatus) bool {
	return status == BookingStatusPending && next.IsTerminal()
}

// BookingParams carries the fields needed to build or restore a Booking.
type BookingParams struct {
	Driver         PartyID
	Owner          PartyID
	Nonce          Nonce
	Amount         Amount
	Rent           Amount
	Status         BookingStatus
	ListingID      string
	StartUnixUTC   int64
	EndUnixUTC     int64
	Metadata       MetadataJSON
	CreatedUnixUTC int64
}

// Booking is the escrow record of one reservation. Identity fields are immutable.
type Booking struct {
	address        BookingAddress
	driver         PartyID
	owner          PartyID
	nonce          Nonce
	amount         Amount
	rent           Amount
	status         BookingStatus
	listingID      string
	startUnixUTC   int64
	endUnixUTC     int64
	metadata       MetadataJSON
	createdUnixUTC int64
}

// NewBooking validates params and derives the booking address.
func NewBooking(params BookingParams) (Booking, error) {
	if params.Driver.IsZero() {
		return Booking{}, fmt.Errorf("%w: driver is required", ErrInvalidParty)
	}
	if params.Owner.IsZero() {
		return Booking{}, fmt.Errorf("%w: owner is required", ErrInvalidParty)
	}
	if params.Driver == params.Owner {
		return Booking{}, fmt.Errorf("%w: driver and owner must differ", ErrInvalidParty)
	}
	if params.Nonce.String() == "" {
		return Booking{}, fmt.Errorf("%w: empty value", ErrInvalidNonce)
	}
	if params.Amount == 0 {
		return Booking{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if params.StartUnixUTC < 0 || params.EndUnixUTC < 0 {
		return Booking{}, fmt.Errorf("%w: negative timestamp", ErrInvalidWindow)
	}
	if params.EndUnixUTC != 0 && params.EndUnixUTC < params.StartUnixUTC {
		return Booking{}, fmt.Errorf("%w: end precedes start", ErrInvalidWindow)
	}
	status := params.Status
	if status == "" {
		status = BookingStatusPending
	}
	if _, err := ParseBookingStatus(status.String()); err != nil {
		return Booking{}, err
	}
	return Booking{
		address:        DeriveAddress(params.Driver, params.Nonce),
		driver:         params.Driver,
		owner:          params.Owner,
		nonce:          params.Nonce,
		amount:         params.Amount,
		rent:           params.Rent,
		status:         status,
		listingID:      strings.TrimSpace(params.ListingID),
		startUnixUTC:   params.StartUnixUTC,
		endUnixUTC:     params.EndUnixUTC,
		metadata:       params.Metadata,
		createdUnixUTC: params.CreatedUnixUTC,
	}, nil
}

func (booking Booking) Address() BookingAddress { return booking.address }
func (booking Booking) Driver() PartyID         { return booking.driver }
func (booking Booking) Owner() PartyID          { return booking.owner }
func (booking Booking) Nonce() Nonce            { return booking.nonce }
func (booking Booking) Amount() Amount          { return booking.amount }
func (booking Booking) Rent() Amount            { return booking.rent }
func (booking Booking) Status() BookingStatus   { return booking.status }
func (booking Booking) ListingID() string       { return booking.listingID }
func (booking Booking) StartUnixUTC() int64     { return booking.startUnixUTC }
func (booking Booking) EndUnixUTC() int64       { return booking.endUnixUTC }
func (booking Booking) Metadata() MetadataJSON  { return booking.metadata }
func (booking Booking) CreatedUnixUTC() int64   { return booking.createdUnixUTC }

// IsParty reports whether the identity is the booking's driver or owner.
func (booking Booking) IsParty(identity PartyID) bool {
	return identity == booking.driver || identity == booking.owner
}

func (booking Booking) withStatus(status BookingStatus) Booking {
	booking.status = status
	return booking
}

// BookingLocator names a booking by address together with the (driver, nonce) it claims to derive from.
type BookingLocator struct {
	address BookingAddress
	driver  PartyID
	nonce   Nonce
}

// NewBookingLocator rejects addresses that do not match their claimed derivation.
func NewBookingLocator(address BookingAddress, driver PartyID, nonce Nonce) (BookingLocator, error) {
	if address.IsZero() {
		return BookingLocator{}, fmt.Errorf("%w: empty value", ErrInvalidAddress)
	}
	if DeriveAddress(driver, nonce) != address {
		return BookingLocator{}, fmt.Errorf("%w: %s is not derived from the supplied driver and nonce", ErrAddressMismatch, address)
	}
	return BookingLocator{address: address, driver: driver, nonce: nonce}, nil
}

// Address returns the located address.
func (locator BookingLocator) Address() BookingAddress {
	return locator.address
}

// Verify checks a loaded record against the locator's claimed slot.
func (locator BookingLocator) Verify(booking Booking) error {
	if booking.address != locator.address || booking.driver != locator.driver || booking.nonce != locator.nonce {
		return fmt.Errorf("%w: record at %s belongs to a different slot", ErrAddressMismatch, locator.address)
	}
	return nil
}

// BookingSnapshot is the serializable form of a Booking.
type BookingSnapshot struct {
	Address        string `json:"address"`
	Driver         string `json:"driver"`
	Owner          string `json:"owner"`
	Nonce          string `json:"nonce"`
	Amount         uint64 `json:"amount"`
	Rent           uint64 `json:"rent"`
	Status         string `json:"status"`
	ListingID      string `json:"listing_id,omitempty"`
	StartUnixUTC   int64  `json:"start_unix_utc,omitempty"`
	EndUnixUTC     int64  `json:"end_unix_utc,omitempty"`
	Metadata       string `json:"metadata"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

// Snapshot exports the booking.
func (booking Booking) Snapshot() BookingSnapshot {
	return BookingSnapshot{
		Address:        booking.address.String(),
		Driver:         booking.driver.String(),
		Owner:          booking.owner.String(),
		Nonce:          booking.nonce.String(),
		Amount:         booking.amount.Uint64(),
		Rent:           booking.rent.Uint64(),
		Status:         booking.status.String(),
		ListingID:      booking.listingID,
		StartUnixUTC:   booking.startUnixUTC,
		EndUnixUTC:     booking.endUnixUTC,
		Metadata:       booking.metadata.String(),
		CreatedUnixUTC: booking.createdUnixUTC,
	}
}

// RestoreBooking rebuilds a booking from a snapshot, verifying its stored address.
func RestoreBooking(snapshot BookingSnapshot) (Booking, error) {
	driver, err := NewPartyID(snapshot.Driver)
	if err != nil {
		return Booking{}, err
	}
	owner, err := NewPartyID(snapshot.Owner)
	if err != nil {
		return Booking{}, err
	}
	nonce, err := NewNonce(snapshot.Nonce)
	if err != nil {
		return Booking{}, err
	}
	status, err := ParseBookingStatus(snapshot.Status)
	if err != nil {
		return Booking{}, err
	}
	metadata, err := NewMetadataJSON(snapshot.Metadata)
	if err != nil {
		return Booking{}, err
	}
	booking, err := NewBooking(BookingParams{
		Driver:         driver,
		Owner:          owner,
		Nonce:          nonce,
		Amount:         Amount(snapshot.Amount),
		Rent:           Amount(snapshot.Rent),
		Status:         status,
		ListingID:      snapshot.ListingID,
		StartUnixUTC:   snapshot.StartUnixUTC,
		EndUnixUTC:     snapshot.EndUnixUTC,
		Metadata:       metadata,
		CreatedUnixUTC: snapshot.CreatedUnixUTC,
	})
	if err != nil {
		return Booking{}, err
	}
	if snapshot.Address != "" && snapshot.Address != booking.address.String() {
		return Booking{}, fmt.Errorf("%w: stored address %s does not match derivation", ErrAddressMismatch, snapshot.Address)
	}
	return booking, nil
}

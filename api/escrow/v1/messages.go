// Package escrowv1 defines the escrow.v1 wire contract: request and response
// messages, the EscrowService client and server bindings, and the JSON codec
// used to carry them over gRPC.
package escrowv1

type Empty struct{}

type Booking struct {
	Address        string `json:"address"`
	DriverId       string `json:"driver_id"`
	OwnerId        string `json:"owner_id"`
	Nonce          string `json:"nonce"`
	Amount         uint64 `json:"amount"`
	Rent           uint64 `json:"rent,omitempty"`
	Status         string `json:"status"`
	ListingId      string `json:"listing_id,omitempty"`
	StartUnixUtc   int64  `json:"start_unix_utc,omitempty"`
	EndUnixUtc     int64  `json:"end_unix_utc,omitempty"`
	MetadataJson   string `json:"metadata_json,omitempty"`
	CreatedUnixUtc int64  `json:"created_unix_utc"`
}

func (x *Booking) GetAddress() string {
	if x != nil {
		return x.Address
	}
	return ""
}

func (x *Booking) GetDriverId() string {
	if x != nil {
		return x.DriverId
	}
	return ""
}

func (x *Booking) GetOwnerId() string {
	if x != nil {
		return x.OwnerId
	}
	return ""
}

func (x *Booking) GetNonce() string {
	if x != nil {
		return x.Nonce
	}
	return ""
}

func (x *Booking) GetAmount() uint64 {
	if x != nil {
		return x.Amount
	}
	return 0
}

func (x *Booking) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

type OpenBookingRequest struct {
	CallerId     string `json:"caller_id"`
	OwnerId      string `json:"owner_id"`
	Nonce        string `json:"nonce"`
	Amount       uint64 `json:"amount"`
	ListingId    string `json:"listing_id,omitempty"`
	StartUnixUtc int64  `json:"start_unix_utc,omitempty"`
	EndUnixUtc   int64  `json:"end_unix_utc,omitempty"`
	MetadataJson string `json:"metadata_json,omitempty"`
}

func (x *OpenBookingRequest) GetCallerId() string {
	if x != nil {
		return x.CallerId
	}
	return ""
}

func (x *OpenBookingRequest) GetOwnerId() string {
	if x != nil {
		return x.OwnerId
	}
	return ""
}

func (x *OpenBookingRequest) GetNonce() string {
	if x != nil {
		return x.Nonce
	}
	return ""
}

func (x *OpenBookingRequest) GetAmount() uint64 {
	if x != nil {
		return x.Amount
	}
	return 0
}

func (x *OpenBookingRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

func (x *OpenBookingRequest) GetStartUnixUtc() int64 {
	if x != nil {
		return x.StartUnixUtc
	}
	return 0
}

func (x *OpenBookingRequest) GetEndUnixUtc() int64 {
	if x != nil {
		return x.EndUnixUtc
	}
	return 0
}

func (x *OpenBookingRequest) GetMetadataJson() string {
	if x != nil {
		return x.MetadataJson
	}
	return ""
}

// BookingLocatorRequest names a booking by address and the slot it claims to derive from.
type BookingLocatorRequest struct {
	CallerId string `json:"caller_id"`
	Address  string `json:"address"`
	DriverId string `json:"driver_id"`
	Nonce    string `json:"nonce"`
}

func (x *BookingLocatorRequest) GetCallerId() string {
	if x != nil {
		return x.CallerId
	}
	return ""
}

func (x *BookingLocatorRequest) GetAddress() string {
	if x != nil {
		return x.Address
	}
	return ""
}

func (x *BookingLocatorRequest) GetDriverId() string {
	if x != nil {
		return x.DriverId
	}
	return ""
}

func (x *BookingLocatorRequest) GetNonce() string {
	if x != nil {
		return x.Nonce
	}
	return ""
}

type CancelBookingRequest = BookingLocatorRequest

type ConfirmBookingRequest = BookingLocatorRequest

type BookingResponse struct {
	Booking *Booking `json:"booking"`
}

func (x *BookingResponse) GetBooking() *Booking {
	if x != nil {
		return x.Booking
	}
	return nil
}

type ConfirmBookingResponse struct {
	Booking     *Booking `json:"booking"`
	OwnerAmount uint64   `json:"owner_amount"`
	PlatformFee uint64   `json:"platform_fee"`
}

func (x *ConfirmBookingResponse) GetBooking() *Booking {
	if x != nil {
		return x.Booking
	}
	return nil
}

func (x *ConfirmBookingResponse) GetOwnerAmount() uint64 {
	if x != nil {
		return x.OwnerAmount
	}
	return 0
}

func (x *ConfirmBookingResponse) GetPlatformFee() uint64 {
	if x != nil {
		return x.PlatformFee
	}
	return 0
}

type GetBookingRequest struct {
	Address string `json:"address"`
}

func (x *GetBookingRequest) GetAddress() string {
	if x != nil {
		return x.Address
	}
	return ""
}

type ListBookingsRequest struct {
	PartyId string `json:"party_id"`
	Role    string `json:"role"`
	Limit   int32  `json:"limit,omitempty"`
}

func (x *ListBookingsRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

func (x *ListBookingsRequest) GetRole() string {
	if x != nil {
		return x.Role
	}
	return ""
}

func (x *ListBookingsRequest) GetLimit() int32 {
	if x != nil {
		return x.Limit
	}
	return 0
}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

func (x *ListBookingsResponse) GetBookings() []*Booking {
	if x != nil {
		return x.Bookings
	}
	return nil
}

type DepositRequest struct {
	PartyId string `json:"party_id"`
	Amount  uint64 `json:"amount"`
}

func (x *DepositRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

func (x *DepositRequest) GetAmount() uint64 {
	if x != nil {
		return x.Amount
	}
	return 0
}

type BalanceRequest struct {
	PartyId string `json:"party_id"`
}

func (x *BalanceRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

type BalanceResponse struct {
	Amount uint64 `json:"amount"`
}

func (x *BalanceResponse) GetAmount() uint64 {
	if x != nil {
		return x.Amount
	}
	return 0
}

type ListEntriesRequest struct {
	PartyId       string `json:"party_id"`
	BeforeUnixUtc int64  `json:"before_unix_utc,omitempty"`
	Limit         int32  `json:"limit,omitempty"`
}

func (x *ListEntriesRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

func (x *ListEntriesRequest) GetBeforeUnixUtc() int64 {
	if x != nil {
		return x.BeforeUnixUtc
	}
	return 0
}

func (x *ListEntriesRequest) GetLimit() int32 {
	if x != nil {
		return x.Limit
	}
	return 0
}

type Entry struct {
	EntryId        string `json:"entry_id"`
	FromAccount    string `json:"from_account,omitempty"`
	ToAccount      string `json:"to_account"`
	Kind           string `json:"kind"`
	Amount         uint64 `json:"amount"`
	BookingAddress string `json:"booking_address,omitempty"`
	CreatedUnixUtc int64  `json:"created_unix_utc"`
}

type ListEntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

func (x *ListEntriesResponse) GetEntries() []*Entry {
	if x != nil {
		return x.Entries
	}
	return nil
}

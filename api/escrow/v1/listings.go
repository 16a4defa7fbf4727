package escrowv1

// Listing is a parking spot in the owner catalog.
type Listing struct {
	ListingId      string  `json:"listing_id"`
	OwnerId        string  `json:"owner_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	StreetAddress  string  `json:"street_address,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	PricePerHour   uint64  `json:"price_per_hour"`
	Active         bool    `json:"active"`
	CreatedUnixUtc int64   `json:"created_unix_utc"`
	UpdatedUnixUtc int64   `json:"updated_unix_utc"`
}

func (x *Listing) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

func (x *Listing) GetOwnerId() string {
	if x != nil {
		return x.OwnerId
	}
	return ""
}

func (x *Listing) GetActive() bool {
	if x != nil {
		return x.Active
	}
	return false
}

type CreateListingRequest struct {
	CallerId      string  `json:"caller_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	StreetAddress string  `json:"street_address,omitempty"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
	PricePerHour  uint64  `json:"price_per_hour"`
}

func (x *CreateListingRequest) GetCallerId() string {
	if x != nil {
		return x.CallerId
	}
	return ""
}

func (x *CreateListingRequest) GetTitle() string {
	if x != nil {
		return x.Title
	}
	return ""
}

func (x *CreateListingRequest) GetDescription() string {
	if x != nil {
		return x.Description
	}
	return ""
}

func (x *CreateListingRequest) GetStreetAddress() string {
	if x != nil {
		return x.StreetAddress
	}
	return ""
}

func (x *CreateListingRequest) GetLatitude() float64 {
	if x != nil {
		return x.Latitude
	}
	return 0
}

func (x *CreateListingRequest) GetLongitude() float64 {
	if x != nil {
		return x.Longitude
	}
	return 0
}

func (x *CreateListingRequest) GetPricePerHour() uint64 {
	if x != nil {
		return x.PricePerHour
	}
	return 0
}

type UpdateListingRequest struct {
	CallerId      string  `json:"caller_id"`
	ListingId     string  `json:"listing_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	StreetAddress string  `json:"street_address,omitempty"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
	PricePerHour  uint64  `json:"price_per_hour"`
}

func (x *UpdateListingRequest) GetCallerId() string {
	if x != nil {
		return x.CallerId
	}
	return ""
}

func (x *UpdateListingRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

func (x *UpdateListingRequest) GetTitle() string {
	if x != nil {
		return x.Title
	}
	return ""
}

func (x *UpdateListingRequest) GetDescription() string {
	if x != nil {
		return x.Description
	}
	return ""
}

func (x *UpdateListingRequest) GetStreetAddress() string {
	if x != nil {
		return x.StreetAddress
	}
	return ""
}

func (x *UpdateListingRequest) GetLatitude() float64 {
	if x != nil {
		return x.Latitude
	}
	return 0
}

func (x *UpdateListingRequest) GetLongitude() float64 {
	if x != nil {
		return x.Longitude
	}
	return 0
}

func (x *UpdateListingRequest) GetPricePerHour() uint64 {
	if x != nil {
		return x.PricePerHour
	}
	return 0
}

// SetListingActiveRequest withdraws a listing when Active is false.
type SetListingActiveRequest struct {
	CallerId  string `json:"caller_id"`
	ListingId string `json:"listing_id"`
	Active    bool   `json:"active"`
}

func (x *SetListingActiveRequest) GetCallerId() string {
	if x != nil {
		return x.CallerId
	}
	return ""
}

func (x *SetListingActiveRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

func (x *SetListingActiveRequest) GetActive() bool {
	if x != nil {
		return x.Active
	}
	return false
}

type GetListingRequest struct {
	ListingId string `json:"listing_id"`
}

func (x *GetListingRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

type ListingResponse struct {
	Listing *Listing `json:"listing"`
}

func (x *ListingResponse) GetListing() *Listing {
	if x != nil {
		return x.Listing
	}
	return nil
}

// ListListingsRequest lists one owner's listings, or every active listing when OwnerId is empty.
type ListListingsRequest struct {
	OwnerId    string `json:"owner_id,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Limit      int32  `json:"limit,omitempty"`
}

func (x *ListListingsRequest) GetOwnerId() string {
	if x != nil {
		return x.OwnerId
	}
	return ""
}

func (x *ListListingsRequest) GetActiveOnly() bool {
	if x != nil {
		return x.ActiveOnly
	}
	return false
}

func (x *ListListingsRequest) GetLimit() int32 {
	if x != nil {
		return x.Limit
	}
	return 0
}

type ListListingsResponse struct {
	Listings []*Listing `json:"listings"`
}

func (x *ListListingsResponse) GetListings() []*Listing {
	if x != nil {
		return x.Listings
	}
	return nil
}

type FavoriteRequest struct {
	PartyId   string `json:"party_id"`
	ListingId string `json:"listing_id"`
}

func (x *FavoriteRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

func (x *FavoriteRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

type AddFavoriteRequest = FavoriteRequest

type RemoveFavoriteRequest = FavoriteRequest

type ListFavoritesRequest struct {
	PartyId string `json:"party_id"`
}

func (x *ListFavoritesRequest) GetPartyId() string {
	if x != nil {
		return x.PartyId
	}
	return ""
}

type FavoritesResponse struct {
	ListingIds []string `json:"listing_ids"`
}

func (x *FavoritesResponse) GetListingIds() []string {
	if x != nil {
		return x.ListingIds
	}
	return nil
}

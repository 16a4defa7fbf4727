package escrow

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ListingID identifies a parking spot in the owner catalog.
type ListingID struct {
	value string
}

// NewListingID validates and normalizes a listing id.
func NewListingID(raw string) (ListingID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ListingID{}, fmt.Errorf("%w: empty id", ErrInvalidListing)
	}
	if strings.Contains(trimmed, addressSeparator) {
		return ListingID{}, fmt.Errorf("%w: id contains separator byte", ErrInvalidListing)
	}
	return ListingID{value: trimmed}, nil
}

func generateListingID() ListingID {
	return ListingID{value: uuid.NewString()}
}

// String returns the normalized identifier.
func (id ListingID) String() string {
	return id.value
}

// IsZero reports whether the id was never set.
func (id ListingID) IsZero() bool {
	return id.value == ""
}

// ListingDetails holds the owner-editable fields of a listing.
type ListingDetails struct {
	Title         string
	Description   string
	StreetAddress string
	Latitude      float64
	Longitude     float64
	PricePerHour  Amount
}

func (details ListingDetails) normalize() (ListingDetails, error) {
	details.Title = strings.TrimSpace(details.Title)
	details.Description = strings.TrimSpace(details.Description)
	details.StreetAddress = strings.TrimSpace(details.StreetAddress)
	if details.Title == "" {
		return ListingDetails{}, fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if utf8.RuneCountInString(details.Title) > maxListingTitleLength {
		return ListingDetails{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidListing, maxListingTitleLength)
	}
	if details.PricePerHour == 0 {
		return ListingDetails{}, fmt.Errorf("%w: price per hour must be greater than zero", ErrInvalidListing)
	}
	if math.IsNaN(details.Latitude) || details.Latitude < -90 || details.Latitude > 90 {
		return ListingDetails{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidListing, details.Latitude)
	}
	if math.IsNaN(details.Longitude) || details.Longitude < -180 || details.Longitude > 180 {
		return ListingDetails{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidListing, details.Longitude)
	}
	return details, nil
}

// ListingParams carries the fields needed to build or restore a Listing.
type ListingParams struct {
	ID             ListingID
	Owner          PartyID
	Details        ListingDetails
	Active         bool
	CreatedUnixUTC int64
	UpdatedUnixUTC int64
}

// Listing is a bookable parking spot offered by an owner at a fixed hourly price.
type Listing struct {
	id             ListingID
	owner          PartyID
	details        ListingDetails
	active         bool
	createdUnixUTC int64
	updatedUnixUTC int64
}

// NewListing validates params. Stores use it to rebuild persisted rows.
func NewListing(params ListingParams) (Listing, error) {
	if params.ID.IsZero() {
		return Listing{}, fmt.Errorf("%w: id is required", ErrInvalidListing)
	}
	if params.Owner.IsZero() {
		return Listing{}, fmt.Errorf("%w: owner is required", ErrInvalidParty)
	}
	details, err := params.Details.normalize()
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		id:             params.ID,
		owner:          params.Owner,
		details:        details,
		active:         params.Active,
		createdUnixUTC: params.CreatedUnixUTC,
		updatedUnixUTC: params.UpdatedUnixUTC,
	}, nil
}

func (listing Listing) ID() ListingID           { return listing.id }
func (listing Listing) Owner() PartyID          { return listing.owner }
func (listing Listing) Details() ListingDetails { return listing.details }
func (listing Listing) Title() string           { return listing.details.Title }
func (listing Listing) PricePerHour() Amount    { return listing.details.PricePerHour }
func (listing Listing) Active() bool            { return listing.active }
func (listing Listing) CreatedUnixUTC() int64   { return listing.createdUnixUTC }
func (listing Listing) UpdatedUnixUTC() int64   { return listing.updatedUnixUTC }

// Quote prices the window [start, end) at the hourly rate, charging every started hour.
func (listing Listing) Quote(startUnixUTC int64, endUnixUTC int64) (Amount, error) {
	if startUnixUTC < 0 || endUnixUTC <= startUnixUTC {
		return 0, fmt.Errorf("%w: quote needs end after start", ErrInvalidWindow)
	}
	duration := endUnixUTC - startUnixUTC
	hours := duration / secondsPerHour
	if duration%secondsPerHour != 0 {
		hours++
	}
	return MulAmounts(listing.details.PricePerHour, Amount(hours))
}

func (listing Listing) withDetails(details ListingDetails, nowUnixUTC int64) Listing {
	listing.details = details
	listing.updatedUnixUTC = nowUnixUTC
	return listing
}

func (listing Listing) withActive(active bool, nowUnixUTC int64) Listing {
	listing.active = active
	listing.updatedUnixUTC = nowUnixUTC
	return listing
}

// ListingFilter narrows the catalog either to one owner's listings or to active ones.
type ListingFilter struct {
	Owner      PartyID
	ActiveOnly bool
	Limit      int
}

// NewListingFilter requires an owner unless only active listings are requested.
func NewListingFilter(owner PartyID, activeOnly bool, limit int) (ListingFilter, error) {
	if owner.IsZero() && !activeOnly {
		return ListingFilter{}, fmt.Errorf("%w: owner is required unless browsing active listings", ErrInvalidFilter)
	}
	if limit <= 0 {
		return ListingFilter{}, fmt.Errorf("%w: limit must be positive", ErrInvalidFilter)
	}
	return ListingFilter{Owner: owner, ActiveOnly: activeOnly, Limit: limit}, nil
}

// Matches reports whether the listing passes the filter.
func (filter ListingFilter) Matches(listing Listing) bool {
	if !filter.Owner.IsZero() && listing.owner != filter.Owner {
		return false
	}
	return !filter.ActiveOnly || listing.active
}

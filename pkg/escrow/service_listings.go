package escrow

import (
	"context"
	"fmt"
)

// CreateListing publishes a new active listing owned by owner.
func (service *Service) CreateListing(ctx context.Context, owner PartyID, details ListingDetails) (Listing, error) {
	nowUnixUTC := service.nowFn()
	listing, operationError := NewListing(ListingParams{
		ID:             generateListingID(),
		Owner:          owner,
		Details:        details,
		Active:         true,
		CreatedUnixUTC: nowUnixUTC,
		UpdatedUnixUTC: nowUnixUTC,
	})
	if operationError == nil {
		operationError = service.store.CreateListing(ctx, listing)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateListing,
		Caller:    owner,
		Listing:   listing.ID(),
		Amount:    details.PricePerHour,
		Error:     operationError,
	})
	if operationError != nil {
		return Listing{}, operationError
	}
	return listing, nil
}

// UpdateListing replaces the editable details of a listing. Only its owner may edit it.
func (service *Service) UpdateListing(ctx context.Context, caller PartyID, id ListingID, details ListingDetails) (Listing, error) {
	updated, operationError := service.mutateListing(ctx, caller, id, func(listing Listing, nowUnixUTC int64) (Listing, error) {
		normalized, err := details.normalize()
		if err != nil {
			return Listing{}, err
		}
		return listing.withDetails(normalized, nowUnixUTC), nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationUpdateListing,
		Caller:    caller,
		Listing:   id,
		Amount:    details.PricePerHour,
		Error:     operationError,
	})
	return updated, operationError
}

// SetListingActive opens or withdraws a listing. Withdrawn listings stay readable but cannot be booked.
func (service *Service) SetListingActive(ctx context.Context, caller PartyID, id ListingID, active bool) (Listing, error) {
	updated, operationError := service.mutateListing(ctx, caller, id, func(listing Listing, nowUnixUTC int64) (Listing, error) {
		return listing.withActive(active, nowUnixUTC), nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSetListingActive,
		Caller:    caller,
		Listing:   id,
		Error:     operationError,
	})
	return updated, operationError
}

func (service *Service) mutateListing(ctx context.Context, caller PartyID, id ListingID, mutate func(Listing, int64) (Listing, error)) (Listing, error) {
	var updated Listing
	nowUnixUTC := service.nowFn()
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		listing, err := transactionStore.GetListing(ctx, id)
		if err != nil {
			return err
		}
		if listing.Owner() != caller {
			return fmt.Errorf("%w: only the listing owner may change it", ErrUnauthorized)
		}
		next, err := mutate(listing, nowUnixUTC)
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateListing(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return Listing{}, err
	}
	return updated, nil
}

// GetListing returns one listing, active or not.
func (service *Service) GetListing(ctx context.Context, id ListingID) (Listing, error) {
	return service.store.GetListing(ctx, id)
}

// ListListings returns catalog entries matching the filter, newest first.
func (service *Service) ListListings(ctx context.Context, filter ListingFilter) ([]Listing, error) {
	return service.store.ListListings(ctx, filter)
}

// AddFavorite bookmarks an existing listing for a party and returns the updated favorites.
func (service *Service) AddFavorite(ctx context.Context, party PartyID, id ListingID) ([]ListingID, error) {
	var favorites []ListingID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if party.IsZero() {
			return ErrInvalidPartyID
		}
		if _, err := transactionStore.GetListing(ctx, id); err != nil {
			return err
		}
		if err := transactionStore.AddFavorite(ctx, party, id, service.nowFn()); err != nil {
			return err
		}
		var err error
		favorites, err = transactionStore.ListFavorites(ctx, party)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationAddFavorite,
		Caller:    party,
		Listing:   id,
		Error:     operationError,
	})
	if operationError != nil {
		return nil, operationError
	}
	return favorites, nil
}

// RemoveFavorite drops a bookmark. Removing an absent or deleted listing is not an error.
func (service *Service) RemoveFavorite(ctx context.Context, party PartyID, id ListingID) ([]ListingID, error) {
	var favorites []ListingID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if party.IsZero() {
			return ErrInvalidPartyID
		}
		if err := transactionStore.RemoveFavorite(ctx, party, id); err != nil {
			return err
		}
		var err error
		favorites, err = transactionStore.ListFavorites(ctx, party)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRemoveFavorite,
		Caller:    party,
		Listing:   id,
		Error:     operationError,
	})
	if operationError != nil {
		return nil, operationError
	}
	return favorites, nil
}

// Favorites returns a party's bookmarked listing ids.
func (service *Service) Favorites(ctx context.Context, party PartyID) ([]ListingID, error) {
	return service.store.ListFavorites(ctx, party)
}

// checkListing requires a booked listing to be active and offered by the booking's owner.
// A booking with a window must escrow exactly the quoted price.
func (service *Service) checkListing(ctx context.Context, transactionStore Store, booking Booking) error {
	if booking.ListingID() == "" {
		return nil
	}
	id, err := NewListingID(booking.ListingID())
	if err != nil {
		return err
	}
	listing, err := transactionStore.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if !listing.Active() {
		return fmt.Errorf("%w: %s is withdrawn", ErrListingInactive, id)
	}
	if listing.Owner() != booking.Owner() {
		return fmt.Errorf("%w: %s is offered by %s", ErrListingOwnerMismatch, id, listing.Owner())
	}
	if booking.EndUnixUTC() == 0 {
		return nil
	}
	quote, err := listing.Quote(booking.StartUnixUTC(), booking.EndUnixUTC())
	if err != nil {
		return err
	}
	if quote != booking.Amount() {
		return fmt.Errorf("%w: window costs %d, offered %d", ErrPriceMismatch, quote, booking.Amount())
	}
	return nil
}

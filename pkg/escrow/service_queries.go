package escrow

import "context"

// Deposit credits a party's free balance.
func (service *Service) Deposit(requestContext context.Context, party PartyID, amount Amount) error {
	var operationError error
	if amount == 0 {
		operationError = ErrInvalidAmount
	} else if party.IsZero() {
		operationError = ErrInvalidPartyID
	} else {
		operationError = service.store.WithTx(requestContext, func(ctx context.Context, transactionStore Store) error {
			return transactionStore.Credit(ctx, Transfer{
				To:             PartyAccount(party),
				Kind:           EntryDeposit,
				Amount:         amount,
				CreatedUnixUTC: service.nowFn(),
			})
		})
	}
	service.logOperation(requestContext, OperationLog{
		Operation: operationDeposit,
		Caller:    party,
		Amount:    amount,
		Error:     operationError,
	})
	return operationError
}

// Balance returns a party's free balance.
func (service *Service) Balance(requestContext context.Context, party PartyID) (Amount, error) {
	return service.store.BalanceOf(requestContext, PartyAccount(party))
}

// EscrowBalance returns the funds currently held for a booking.
func (service *Service) EscrowBalance(requestContext context.Context, address BookingAddress) (Amount, error) {
	return service.store.BalanceOf(requestContext, EscrowAccount(address))
}

// Get returns a live booking, consulting the cache first when one is configured.
func (service *Service) Get(requestContext context.Context, address BookingAddress) (Booking, error) {
	if service.cache != nil {
		cached, found, err := service.cache.Get(requestContext, address)
		if err == nil && found {
			return cached, nil
		}
	}
	booking, err := service.store.GetBooking(requestContext, address)
	if err != nil {
		return Booking{}, err
	}
	service.remember(requestContext, booking)
	return booking, nil
}

// List returns live bookings where the party plays the filtered role, newest first.
func (service *Service) List(requestContext context.Context, filter BookingFilter) ([]Booking, error) {
	return service.store.ListBookings(requestContext, filter)
}

// ListEntries lists journal entries touching a party's account before a cutoff time.
func (service *Service) ListEntries(requestContext context.Context, party PartyID, beforeUnixUTC int64, limit int) ([]Entry, error) {
	return service.store.ListEntries(requestContext, PartyAccount(party), beforeUnixUTC, limit)
}

// Platform returns the party receiving platform fees.
func (service *Service) Platform() PartyID {
	return service.platform
}

package escrow

import (
	"context"
	"fmt"
)

// Service contains the booking state machine over a custody Store.
type Service struct {
	store     Store
	nowFn     func() int64
	platform  PartyID
	rent      Amount
	logger    OperationLogger
	publisher EventPublisher
	cache     BookingCache
}

// NewService wires a Service. Platform fees are paid to the platform party's account.
func NewService(store Store, now func() int64, platform PartyID, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	if platform.IsZero() {
		return nil, fmt.Errorf("%w: platform party is required", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, platform: platform}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// OpenRequest carries the driver-supplied terms of a new booking.
type OpenRequest struct {
	Owner        PartyID
	Nonce        Nonce
	Amount       Amount
	ListingID    string
	StartUnixUTC int64
	EndUnixUTC   int64
	Metadata     MetadataJSON
}

// Settlement reports how a confirmed booking's escrow was disbursed.
type Settlement struct {
	Booking     Booking
	OwnerAmount Amount
	PlatformFee Amount
}

// Open creates a pending booking in the (driver, nonce) slot and moves amount into escrow.
func (service *Service) Open(ctx context.Context, driver PartyID, request OpenRequest) (Booking, error) {
	var opened Booking
	nowUnixUTC := service.nowFn()
	booking, operationError := NewBooking(BookingParams{
		Driver:         driver,
		Owner:          request.Owner,
		Nonce:          request.Nonce,
		Amount:         request.Amount,
		Rent:           service.rent,
		Status:         BookingStatusPending,
		ListingID:      request.ListingID,
		StartUnixUTC:   request.StartUnixUTC,
		EndUnixUTC:     request.EndUnixUTC,
		Metadata:       request.Metadata,
		CreatedUnixUTC: nowUnixUTC,
	})
	if operationError == nil {
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			if err := service.checkListing(ctx, transactionStore, booking); err != nil {
				return err
			}
			if err := transactionStore.CreateBooking(ctx, booking); err != nil {
				return err
			}
			if err := transactionStore.Transfer(ctx, Transfer{
				From:           PartyAccount(driver),
				To:             EscrowAccount(booking.Address()),
				Kind:           EntryEscrow,
				Amount:         booking.Amount(),
				BookingAddress: booking.Address(),
				CreatedUnixUTC: nowUnixUTC,
			}); err != nil {
				return err
			}
			if booking.Rent() > 0 {
				if err := transactionStore.Transfer(ctx, Transfer{
					From:           PartyAccount(driver),
					To:             RentAccount(booking.Address()),
					Kind:           EntryRent,
					Amount:         booking.Rent(),
					BookingAddress: booking.Address(),
					CreatedUnixUTC: nowUnixUTC,
				}); err != nil {
					return err
				}
			}
			opened = booking
			return nil
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationOpen,
		Caller:    driver,
		Address:   booking.Address(),
		Amount:    request.Amount,
		Error:     operationError,
	})
	if operationError != nil {
		return Booking{}, operationError
	}
	service.publish(ctx, newBookingEvent(EventBookingOpened, opened, nowUnixUTC))
	return opened, nil
}

// Cancel refunds the full escrow to the driver and destroys the record.
// Either the driver or the owner may cancel a pending booking.
func (service *Service) Cancel(ctx context.Context, caller PartyID, locator BookingLocator) (Booking, error) {
	var cancelled Booking
	nowUnixUTC := service.nowFn()
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		booking, err := service.loadForTransition(ctx, transactionStore, locator)
		if err != nil {
			return err
		}
		if !booking.IsParty(caller) {
			return fmt.Errorf("%w: only the driver or owner may cancel", ErrUnauthorized)
		}
		if err := service.ensureTransition(ctx, transactionStore, booking, BookingStatusCancelled); err != nil {
			return err
		}
		if err := transactionStore.UpdateBookingStatus(ctx, booking.Address(), BookingStatusPending, BookingStatusCancelled); err != nil {
			return err
		}
		if err := transactionStore.Transfer(ctx, Transfer{
			From:           EscrowAccount(booking.Address()),
			To:             PartyAccount(booking.Driver()),
			Kind:           EntryRefund,
			Amount:         booking.Amount(),
			BookingAddress: booking.Address(),
			CreatedUnixUTC: nowUnixUTC,
		}); err != nil {
			return err
		}
		if err := service.closeRecord(ctx, transactionStore, booking, nowUnixUTC); err != nil {
			return err
		}
		cancelled = booking.withStatus(BookingStatusCancelled)
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationCancel,
		Caller:    caller,
		Address:   locator.Address(),
		Amount:    cancelled.Amount(),
		Error:     operationError,
	})
	if operationError != nil {
		return Booking{}, operationError
	}
	service.forget(ctx, cancelled.Address())
	service.publish(ctx, newBookingEvent(EventBookingCancelled, cancelled, nowUnixUTC))
	return cancelled, nil
}

// Confirm pays the owner the escrow minus the platform fee, pays the fee, and destroys the record.
// Only the owner may confirm.
func (service *Service) Confirm(ctx context.Context, caller PartyID, locator BookingLocator) (Settlement, error) {
	var settlement Settlement
	nowUnixUTC := service.nowFn()
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		booking, err := service.loadForTransition(ctx, transactionStore, locator)
		if err != nil {
			return err
		}
		if caller != booking.Owner() {
			return fmt.Errorf("%w: only the owner may confirm", ErrUnauthorized)
		}
		if err := service.ensureTransition(ctx, transactionStore, booking, BookingStatusConfirmed); err != nil {
			return err
		}
		ownerAmount, platformFee, err := ComputeFee(booking.Amount())
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateBookingStatus(ctx, booking.Address(), BookingStatusPending, BookingStatusConfirmed); err != nil {
			return err
		}
		if err := transactionStore.Transfer(ctx, Transfer{
			From:           EscrowAccount(booking.Address()),
			To:             PartyAccount(booking.Owner()),
			Kind:           EntryPayout,
			Amount:         ownerAmount,
			BookingAddress: booking.Address(),
			CreatedUnixUTC: nowUnixUTC,
		}); err != nil {
			return err
		}
		if platformFee > 0 {
			if err := transactionStore.Transfer(ctx, Transfer{
				From:           EscrowAccount(booking.Address()),
				To:             PartyAccount(service.platform),
				Kind:           EntryFee,
				Amount:         platformFee,
				BookingAddress: booking.Address(),
				CreatedUnixUTC: nowUnixUTC,
			}); err != nil {
				return err
			}
		}
		if err := service.closeRecord(ctx, transactionStore, booking, nowUnixUTC); err != nil {
			return err
		}
		settlement = Settlement{
			Booking:     booking.withStatus(BookingStatusConfirmed),
			OwnerAmount: ownerAmount,
			PlatformFee: platformFee,
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operationConfirm,
		Caller:      caller,
		Address:     locator.Address(),
		Amount:      settlement.Booking.Amount(),
		OwnerAmount: settlement.OwnerAmount,
		PlatformFee: settlement.PlatformFee,
		Error:       operationError,
	})
	if operationError != nil {
		return Settlement{}, operationError
	}
	service.forget(ctx, settlement.Booking.Address())
	event := newBookingEvent(EventBookingConfirmed, settlement.Booking, nowUnixUTC)
	event.OwnerAmount = settlement.OwnerAmount.Uint64()
	event.PlatformFee = settlement.PlatformFee.Uint64()
	service.publish(ctx, event)
	return settlement, nil
}

func (service *Service) loadForTransition(ctx context.Context, transactionStore Store, locator BookingLocator) (Booking, error) {
	if locator.Address().IsZero() {
		return Booking{}, fmt.Errorf("%w: empty locator", ErrInvalidAddress)
	}
	booking, err := transactionStore.GetBooking(ctx, locator.Address())
	if err != nil {
		return Booking{}, err
	}
	if err := locator.Verify(booking); err != nil {
		return Booking{}, err
	}
	return booking, nil
}

// ensureTransition checks state legality and that escrow still covers the full amount.
func (service *Service) ensureTransition(ctx context.Context, transactionStore Store, booking Booking, next BookingStatus) error {
	if !booking.Status().canTransition(next) {
		return fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status())
	}
	escrowBalance, err := transactionStore.BalanceOf(ctx, EscrowAccount(booking.Address()))
	if err != nil {
		return err
	}
	if escrowBalance < booking.Amount() {
		return fmt.Errorf("%w: escrow holds %d of %d", ErrInsufficientFunds, escrowBalance, booking.Amount())
	}
	return nil
}

// closeRecord returns the storage deposit to the driver and deletes the record.
func (service *Service) closeRecord(ctx context.Context, transactionStore Store, booking Booking, nowUnixUTC int64) error {
	remaining, err := transactionStore.BalanceOf(ctx, EscrowAccount(booking.Address()))
	if err != nil {
		return err
	}
	if remaining != 0 {
		return fmt.Errorf("%w: %d left in escrow after disbursement", ErrEscrowImbalance, remaining)
	}
	rent, err := transactionStore.BalanceOf(ctx, RentAccount(booking.Address()))
	if err != nil {
		return err
	}
	if rent > 0 {
		if err := transactionStore.Transfer(ctx, Transfer{
			From:           RentAccount(booking.Address()),
			To:             PartyAccount(booking.Driver()),
			Kind:           EntryRentReturn,
			Amount:         rent,
			BookingAddress: booking.Address(),
			CreatedUnixUTC: nowUnixUTC,
		}); err != nil {
			return err
		}
	}
	return transactionStore.DeleteBooking(ctx, booking.Address())
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

// publish delivers a committed event; failures are logged and never undo the operation.
func (service *Service) publish(ctx context.Context, event BookingEvent) {
	if service.publisher == nil {
		return
	}
	if err := service.publisher.Publish(ctx, event); err != nil {
		address, _ := NewBookingAddress(event.Address)
		service.logOperation(ctx, OperationLog{
			Operation: operationPublish,
			Address:   address,
			Amount:    Amount(event.Amount),
			Error:     err,
		})
	}
}

func (service *Service) forget(ctx context.Context, address BookingAddress) {
	if service.cache == nil {
		return
	}
	_ = service.cache.Delete(ctx, address)
}

// remember fills the cache after a store read, then evicts again unless the store
// still holds the same record.
func (service *Service) remember(ctx context.Context, booking Booking) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Set(ctx, booking); err != nil {
		return
	}
	current, err := service.store.GetBooking(ctx, booking.Address())
	if err != nil || current != booking {
		_ = service.cache.Delete(ctx, booking.Address())
	}
}

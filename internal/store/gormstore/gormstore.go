package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintBookingPrimary = "bookings_pkey"
	defaultMetadataJSON      = "{}"
	pgUniqueViolationCode    = "23505"
	mysqlDuplicateEntryCode  = 1062
	sqliteConstraintCode     = 19
	errorOperationStore      = "store"
	errorSubjectBalance      = "balance"
	errorSubjectBooking      = "booking"
	errorSubjectEntry        = "entry"
	errorSubjectFavorite     = "favorite"
	errorSubjectListing      = "listing"
	errorCodeCreate          = "create"
	errorCodeCredit          = "credit"
	errorCodeDebit           = "debit"
	errorCodeDelete          = "delete"
	errorCodeDuplicate       = "duplicate"
	errorCodeGet             = "get"
	errorCodeInsert          = "insert"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"
	errorCodeLock            = "lock"
	errorCodeLookup          = "lookup"
	errorCodeUpdate          = "update"
	errorCodeUpdateStatus    = "update_status"
)

// Store implements escrow.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore escrow.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) BalanceOf(ctx context.Context, account escrow.AccountID) (escrow.Amount, error) {
	var row Balance
	err := store.db.WithContext(ctx).Where("account_id = ?", account.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLookup, err)
	}
	amount, err := escrow.AmountFromStorable(row.Amount)
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return amount, nil
}

func (store *Store) Credit(ctx context.Context, transfer escrow.Transfer) error {
	current, err := store.lockBalance(ctx, transfer.To)
	if err != nil {
		return err
	}
	credited, err := escrow.AddAmounts(current, transfer.Amount)
	if err != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeCredit, err)
	}
	if err := store.writeBalance(ctx, transfer.To, credited, errorCodeCredit); err != nil {
		return err
	}
	return store.insertEntry(ctx, transfer)
}

func (store *Store) Transfer(ctx context.Context, transfer escrow.Transfer) error {
	if transfer.From == transfer.To {
		return wrapStoreError(errorSubjectBalance, errorCodeInvalid, fmt.Errorf("%w: self transfer", escrow.ErrInvalidAccountID))
	}
	balances := make(map[escrow.AccountID]escrow.Amount, 2)
	ordered := []escrow.AccountID{transfer.From, transfer.To}
	sort.Slice(ordered, func(left, right int) bool { return ordered[left].String() < ordered[right].String() })
	for _, account := range ordered {
		current, err := store.lockBalance(ctx, account)
		if err != nil {
			return err
		}
		balances[account] = current
	}
	debited, err := escrow.SubAmounts(balances[transfer.From], transfer.Amount)
	if err != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeDebit, fmt.Errorf("%w: %s holds %d of %d", escrow.ErrInsufficientFunds, transfer.From, balances[transfer.From], transfer.Amount))
	}
	credited, err := escrow.AddAmounts(balances[transfer.To], transfer.Amount)
	if err != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeCredit, err)
	}
	if err := store.writeBalance(ctx, transfer.From, debited, errorCodeDebit); err != nil {
		return err
	}
	if err := store.writeBalance(ctx, transfer.To, credited, errorCodeCredit); err != nil {
		return err
	}
	return store.insertEntry(ctx, transfer)
}

// lockBalance makes sure the account row exists and reads it under a row lock.
func (store *Store) lockBalance(ctx context.Context, account escrow.AccountID) (escrow.Amount, error) {
	seed := Balance{AccountID: account.String(), UpdatedAt: time.Now().UTC()}
	if err := store.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLock, err)
	}
	var row Balance
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", account.String()).
		Take(&row).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLock, err)
	}
	amount, err := escrow.AmountFromStorable(row.Amount)
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return amount, nil
}

func (store *Store) writeBalance(ctx context.Context, account escrow.AccountID, amount escrow.Amount, code string) error {
	storable, err := amount.Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBalance, code, err)
	}
	err = store.db.WithContext(ctx).
		Model(&Balance{}).
		Where("account_id = ?", account.String()).
		Updates(map[string]any{"amount": storable, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return wrapStoreError(errorSubjectBalance, code, err)
	}
	return nil
}

func (store *Store) insertEntry(ctx context.Context, transfer escrow.Transfer) error {
	storable, err := transfer.Amount.Storable()
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	entry := LedgerEntry{
		ToAccount: transfer.To.String(),
		Kind:      transfer.Kind.String(),
		Amount:    storable,
		CreatedAt: time.Unix(transfer.CreatedUnixUTC, 0).UTC(),
	}
	if !transfer.From.IsZero() {
		value := transfer.From.String()
		entry.FromAccount = &value
	}
	if !transfer.BookingAddress.IsZero() {
		value := transfer.BookingAddress.String()
		entry.BookingAddress = &value
	}
	if transfer.CreatedUnixUTC == 0 {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := store.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) CreateBooking(ctx context.Context, booking escrow.Booking) error {
	amount, err := booking.Amount().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	rent, err := booking.Rent().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	model := Booking{
		Address:      booking.Address().String(),
		Driver:       booking.Driver().String(),
		Owner:        booking.Owner().String(),
		Nonce:        booking.Nonce().String(),
		Amount:       amount,
		Rent:         rent,
		Status:       booking.Status().String(),
		ListingID:    booking.ListingID(),
		StartUnixUTC: booking.StartUnixUTC(),
		EndUnixUTC:   booking.EndUnixUTC(),
		Metadata:     datatypesJSON(booking.Metadata().String()),
		CreatedAt:    time.Unix(booking.CreatedUnixUTC(), 0).UTC(),
	}
	err = store.db.WithContext(ctx).Create(&model).Error
	if isBookingConflict(err) {
		return wrapStoreError(errorSubjectBooking, errorCodeDuplicate, escrow.ErrBookingExists)
	}
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetBooking(ctx context.Context, address escrow.BookingAddress) (escrow.Booking, error) {
	var model Booking
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return escrow.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, escrow.ErrUnknownBooking)
		}
		return escrow.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	booking, err := mapBooking(model)
	if err != nil {
		return escrow.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return booking, nil
}

func (store *Store) UpdateBookingStatus(ctx context.Context, address escrow.BookingAddress, from, to escrow.BookingStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("address = ? AND status = ?", address.String(), from.String()).
		Update("status", to.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, escrow.ErrInvalidState)
	}
	return nil
}

func (store *Store) DeleteBooking(ctx context.Context, address escrow.BookingAddress) error {
	result := store.db.WithContext(ctx).Where("address = ?", address.String()).Delete(&Booking{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, escrow.ErrUnknownBooking)
	}
	return nil
}

func (store *Store) ListBookings(ctx context.Context, filter escrow.BookingFilter) ([]escrow.Booking, error) {
	column := "driver"
	if filter.Role == escrow.RoleOwner {
		column = "owner"
	}
	var rows []Booking
	err := store.db.WithContext(ctx).
		Where(column+" = ?", filter.Party.String()).
		Order("created_at DESC").
		Order("address ASC").
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]escrow.Booking, 0, len(rows))
	for _, row := range rows {
		booking, err := mapBooking(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (store *Store) ListEntries(ctx context.Context, account escrow.AccountID, beforeUnixUTC int64, limit int) ([]escrow.Entry, error) {
	before := time.Unix(beforeUnixUTC, 0).UTC()
	if beforeUnixUTC == 0 {
		before = time.Now().UTC().Add(time.Second)
	}

	var rows []LedgerEntry
	err := store.db.WithContext(ctx).
		Where("(from_account = ? OR to_account = ?) AND created_at < ?", account.String(), account.String(), before).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}

	entries := make([]escrow.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapLedgerEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *Store) CreateListing(ctx context.Context, listing escrow.Listing) error {
	model, err := listingModel(listing)
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeCreate, err)
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetListing(ctx context.Context, id escrow.ListingID) (escrow.Listing, error) {
	var model Listing
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return escrow.Listing{}, wrapStoreError(errorSubjectListing, errorCodeGet, escrow.ErrUnknownListing)
		}
		return escrow.Listing{}, wrapStoreError(errorSubjectListing, errorCodeGet, err)
	}
	listing, err := mapListing(model)
	if err != nil {
		return escrow.Listing{}, wrapStoreError(errorSubjectListing, errorCodeInvalid, err)
	}
	return listing, nil
}

// UpdateListing overwrites the mutable columns. Callers load the row under lock first.
func (store *Store) UpdateListing(ctx context.Context, listing escrow.Listing) error {
	model, err := listingModel(listing)
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeUpdate, err)
	}
	err = store.db.WithContext(ctx).
		Model(&Listing{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"title":          model.Title,
			"description":    model.Description,
			"street_address": model.StreetAddress,
			"latitude":       model.Latitude,
			"longitude":      model.Longitude,
			"price_per_hour": model.PricePerHour,
			"active":         model.Active,
			"updated_at":     model.UpdatedAt,
		}).Error
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeUpdate, err)
	}
	return nil
}

func (store *Store) ListListings(ctx context.Context, filter escrow.ListingFilter) ([]escrow.Listing, error) {
	query := store.db.WithContext(ctx).Model(&Listing{})
	if !filter.Owner.IsZero() {
		query = query.Where("owner = ?", filter.Owner.String())
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	var rows []Listing
	if err := query.Order("created_at DESC").Order("id ASC").Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectListing, errorCodeList, err)
	}
	listings := make([]escrow.Listing, 0, len(rows))
	for _, row := range rows {
		listing, err := mapListing(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectListing, errorCodeInvalid, err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (store *Store) AddFavorite(ctx context.Context, party escrow.PartyID, id escrow.ListingID, createdUnixUTC int64) error {
	favorite := Favorite{PartyID: party.String(), ListingID: id.String(), CreatedAt: time.Unix(createdUnixUTC, 0).UTC()}
	if err := store.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite).Error; err != nil {
		return wrapStoreError(errorSubjectFavorite, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) RemoveFavorite(ctx context.Context, party escrow.PartyID, id escrow.ListingID) error {
	err := store.db.WithContext(ctx).
		Where("party_id = ? AND listing_id = ?", party.String(), id.String()).
		Delete(&Favorite{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectFavorite, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) ListFavorites(ctx context.Context, party escrow.PartyID) ([]escrow.ListingID, error) {
	var rows []Favorite
	err := store.db.WithContext(ctx).
		Where("party_id = ?", party.String()).
		Order("created_at ASC").
		Order("listing_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectFavorite, errorCodeList, err)
	}
	favorites := make([]escrow.ListingID, 0, len(rows))
	for _, row := range rows {
		id, err := escrow.NewListingID(row.ListingID)
		if err != nil {
			return nil, wrapStoreError(errorSubjectFavorite, errorCodeInvalid, err)
		}
		favorites = append(favorites, id)
	}
	return favorites, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return escrow.WrapError(errorOperationStore, subject, code, err)
}

func mapBooking(row Booking) (escrow.Booking, error) {
	return escrow.RestoreBooking(escrow.BookingSnapshot{
		Address:        row.Address,
		Driver:         row.Driver,
		Owner:          row.Owner,
		Nonce:          row.Nonce,
		Amount:         uint64(row.Amount),
		Rent:           uint64(row.Rent),
		Status:         row.Status,
		ListingID:      row.ListingID,
		StartUnixUTC:   row.StartUnixUTC,
		EndUnixUTC:     row.EndUnixUTC,
		Metadata:       string(row.Metadata),
		CreatedUnixUTC: row.CreatedAt.Unix(),
	})
}

func listingModel(listing escrow.Listing) (Listing, error) {
	price, err := listing.PricePerHour().Storable()
	if err != nil {
		return Listing{}, err
	}
	details := listing.Details()
	return Listing{
		ID:            listing.ID().String(),
		Owner:         listing.Owner().String(),
		Title:         details.Title,
		Description:   details.Description,
		StreetAddress: details.StreetAddress,
		Latitude:      details.Latitude,
		Longitude:     details.Longitude,
		PricePerHour:  price,
		Active:        listing.Active(),
		CreatedAt:     time.Unix(listing.CreatedUnixUTC(), 0).UTC(),
		UpdatedAt:     time.Unix(listing.UpdatedUnixUTC(), 0).UTC(),
	}, nil
}

func mapListing(row Listing) (escrow.Listing, error) {
	id, err := escrow.NewListingID(row.ID)
	if err != nil {
		return escrow.Listing{}, err
	}
	owner, err := escrow.NewPartyID(row.Owner)
	if err != nil {
		return escrow.Listing{}, err
	}
	price, err := escrow.AmountFromStorable(row.PricePerHour)
	if err != nil {
		return escrow.Listing{}, err
	}
	return escrow.NewListing(escrow.ListingParams{
		ID:    id,
		Owner: owner,
		Details: escrow.ListingDetails{
			Title:         row.Title,
			Description:   row.Description,
			StreetAddress: row.StreetAddress,
			Latitude:      row.Latitude,
			Longitude:     row.Longitude,
			PricePerHour:  price,
		},
		Active:         row.Active,
		CreatedUnixUTC: row.CreatedAt.Unix(),
		UpdatedUnixUTC: row.UpdatedAt.Unix(),
	})
}

func mapLedgerEntry(row LedgerEntry) (escrow.Entry, error) {
	entryID, err := escrow.NewEntryID(row.EntryID)
	if err != nil {
		return escrow.Entry{}, err
	}
	var from escrow.AccountID
	if row.FromAccount != nil {
		from, err = escrow.ParseAccountID(*row.FromAccount)
		if err != nil {
			return escrow.Entry{}, err
		}
	}
	to, err := escrow.ParseAccountID(row.ToAccount)
	if err != nil {
		return escrow.Entry{}, err
	}
	kind, err := escrow.ParseEntryKind(row.Kind)
	if err != nil {
		return escrow.Entry{}, err
	}
	amount, err := escrow.AmountFromStorable(row.Amount)
	if err != nil {
		return escrow.Entry{}, err
	}
	var address escrow.BookingAddress
	if row.BookingAddress != nil {
		address, err = escrow.NewBookingAddress(*row.BookingAddress)
		if err != nil {
			return escrow.Entry{}, err
		}
	}
	return escrow.Entry{
		EntryID:        entryID,
		From:           from,
		To:             to,
		Kind:           kind,
		Amount:         amount,
		BookingAddress: address,
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}, nil
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isBookingConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintBookingPrimary
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntryCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintBookingPrimary = "bookings_pkey"
	pgUniqueViolationCode    = "23505"
	errorOperationStore      = "store"
	errorSubjectBalance      = "balance"
	errorSubjectBooking      = "booking"
	errorSubjectEntry        = "entry"
	errorSubjectFavorite     = "favorite"
	errorSubjectListing      = "listing"
	errorSubjectSchema       = "schema"
	errorSubjectTransaction  = "transaction"
	errorCodeBegin           = "begin"
	errorCodeCommit          = "commit"
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
	errorCodeMigrate         = "migrate"
	errorCodeUpdate          = "update"
	errorCodeUpdateStatus    = "update_status"

	sqlEnsureBalance = `
		insert into balances(account_id) values($1)
		on conflict (account_id) do nothing
	`

	sqlLockBalance = `
		select amount from balances where account_id = $1 for update
	`

	sqlSelectBalance = `
		select coalesce((select amount from balances where account_id = $1), 0)
	`

	sqlWriteBalance = `
		update balances set amount = $2, updated_at = now() where account_id = $1
	`

	sqlInsertEntry = `
		insert into ledger_entries(entry_id, from_account, to_account, kind, amount, booking_address, created_at)
		values($1, nullif($2,''), $3, $4, $5, nullif($6,''), to_timestamp($7))
	`

	sqlInsertBooking = `
		insert into bookings(
			address, driver, owner, nonce, amount, rent, status,
			listing_id, start_unix_utc, end_unix_utc, metadata, created_at
		)
		values($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, coalesce(nullif($11,''),'{}')::jsonb, to_timestamp($12))
	`

	bookingColumns = `
		address, driver, owner, nonce, amount, rent, status,
		listing_id, start_unix_utc, end_unix_utc, metadata::text, extract(epoch from created_at)::bigint
	`

	sqlSelectBooking = `select ` + bookingColumns + ` from bookings where address = $1 for update`

	sqlUpdateBookingStatus = `
		update bookings
		set status = $3, updated_at = now()
		where address = $1 and status = $2
	`

	sqlDeleteBooking = `delete from bookings where address = $1`

	sqlListBookingsByDriver = `select ` + bookingColumns + ` from bookings where driver = $1 order by created_at desc, address asc limit $2`

	sqlListBookingsByOwner = `select ` + bookingColumns + ` from bookings where owner = $1 order by created_at desc, address asc limit $2`

	listingColumns = `
		id, owner, title, description, street_address, latitude, longitude,
		price_per_hour, active, extract(epoch from created_at)::bigint, extract(epoch from updated_at)::bigint
	`

	sqlInsertListing = `
		insert into listings(
			id, owner, title, description, street_address, latitude, longitude,
			price_per_hour, active, created_at, updated_at
		)
		values($1, $2, $3, $4, $5, $6, $7, $8, $9, to_timestamp($10), to_timestamp($11))
	`

	sqlSelectListing = `select ` + listingColumns + ` from listings where id = $1 for update`

	sqlUpdateListing = `
		update listings
		set title = $2, description = $3, street_address = $4, latitude = $5, longitude = $6,
			price_per_hour = $7, active = $8, updated_at = to_timestamp($9)
		where id = $1
	`

	sqlListListings = `
		select ` + listingColumns + ` from listings
		where ($1 = '' or owner = $1) and (not $2 or active)
		order by created_at desc, id asc
		limit $3
	`

	sqlInsertFavorite = `
		insert into favorites(party_id, listing_id, created_at) values($1, $2, to_timestamp($3))
		on conflict (party_id, listing_id) do nothing
	`

	sqlDeleteFavorite = `delete from favorites where party_id = $1 and listing_id = $2`

	sqlListFavorites = `select listing_id from favorites where party_id = $1 order by created_at asc, listing_id asc`

	sqlListEntriesBefore = `
		select
			entry_id::text,
			coalesce(from_account,''),
			to_account,
			kind,
			amount,
			coalesce(booking_address,''),
			extract(epoch from created_at)::bigint
		from ledger_entries
		where (from_account = $1 or to_account = $1) and created_at < to_timestamp($2)
		order by created_at desc
		limit $3
	`
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements escrow.Store using a pgx connection pool (autocommit).
type Store struct {
	queries
	pool *pgxpool.Pool
}

// TxStore implements escrow.Store for an active transaction.
type TxStore struct {
	queries
}

type queries struct {
	db querier
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeMigrate, err)
	}
	return nil
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore escrow.Store) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &TxStore{queries: queries{db: tx}}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore escrow.Store) error) error {
	return fn(ctx, store)
}

func (store queries) BalanceOf(ctx context.Context, account escrow.AccountID) (escrow.Amount, error) {
	var stored int64
	if err := store.db.QueryRow(ctx, sqlSelectBalance, account.String()).Scan(&stored); err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLookup, err)
	}
	amount, err := escrow.AmountFromStorable(stored)
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return amount, nil
}

// Credit and Transfer lock every touched balance row, so they are only atomic inside WithTx.
func (store queries) Credit(ctx context.Context, transfer escrow.Transfer) error {
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

func (store queries) Transfer(ctx context.Context, transfer escrow.Transfer) error {
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

func (store queries) lockBalance(ctx context.Context, account escrow.AccountID) (escrow.Amount, error) {
	if _, err := store.db.Exec(ctx, sqlEnsureBalance, account.String()); err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLock, err)
	}
	var stored int64
	if err := store.db.QueryRow(ctx, sqlLockBalance, account.String()).Scan(&stored); err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeLock, err)
	}
	amount, err := escrow.AmountFromStorable(stored)
	if err != nil {
		return 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return amount, nil
}

func (store queries) writeBalance(ctx context.Context, account escrow.AccountID, amount escrow.Amount, code string) error {
	storable, err := amount.Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBalance, code, err)
	}
	if _, err := store.db.Exec(ctx, sqlWriteBalance, account.String(), storable); err != nil {
		return wrapStoreError(errorSubjectBalance, code, err)
	}
	return nil
}

func (store queries) insertEntry(ctx context.Context, transfer escrow.Transfer) error {
	storable, err := transfer.Amount.Storable()
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	_, err = store.db.Exec(ctx, sqlInsertEntry,
		uuid.NewString(),
		transfer.From.String(),
		transfer.To.String(),
		transfer.Kind.String(),
		storable,
		transfer.BookingAddress.String(),
		transfer.CreatedUnixUTC,
	)
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store queries) CreateBooking(ctx context.Context, booking escrow.Booking) error {
	amount, err := booking.Amount().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	rent, err := booking.Rent().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	_, err = store.db.Exec(ctx, sqlInsertBooking,
		booking.Address().String(),
		booking.Driver().String(),
		booking.Owner().String(),
		booking.Nonce().String(),
		amount,
		rent,
		booking.Status().String(),
		booking.ListingID(),
		booking.StartUnixUTC(),
		booking.EndUnixUTC(),
		booking.Metadata().String(),
		booking.CreatedUnixUTC(),
	)
	if isBookingConflict(err) {
		return wrapStoreError(errorSubjectBooking, errorCodeDuplicate, escrow.ErrBookingExists)
	}
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	return nil
}

func (store queries) GetBooking(ctx context.Context, address escrow.BookingAddress) (escrow.Booking, error) {
	booking, err := scanBooking(store.db.QueryRow(ctx, sqlSelectBooking, address.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return escrow.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, escrow.ErrUnknownBooking)
		}
		return escrow.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return booking, nil
}

func (store queries) UpdateBookingStatus(ctx context.Context, address escrow.BookingAddress, from, to escrow.BookingStatus) error {
	tag, err := store.db.Exec(ctx, sqlUpdateBookingStatus, address.String(), from.String(), to.String())
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, escrow.ErrInvalidState)
	}
	return nil
}

func (store queries) DeleteBooking(ctx context.Context, address escrow.BookingAddress) error {
	tag, err := store.db.Exec(ctx, sqlDeleteBooking, address.String())
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, escrow.ErrUnknownBooking)
	}
	return nil
}

func (store queries) ListBookings(ctx context.Context, filter escrow.BookingFilter) ([]escrow.Booking, error) {
	statement := sqlListBookingsByDriver
	if filter.Role == escrow.RoleOwner {
		statement = sqlListBookingsByOwner
	}
	rows, err := store.db.Query(ctx, statement, filter.Party.String(), filter.Limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	defer rows.Close()
	bookings := make([]escrow.Booking, 0, filter.Limit)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return bookings, nil
}

func (store queries) ListEntries(ctx context.Context, account escrow.AccountID, beforeUnixUTC int64, limit int) ([]escrow.Entry, error) {
	if beforeUnixUTC == 0 {
		beforeUnixUTC = time.Now().UTC().Add(time.Second).Unix()
	}
	rows, err := store.db.Query(ctx, sqlListEntriesBefore, account.String(), beforeUnixUTC, limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
	}
	return entries, nil
}

func (store queries) CreateListing(ctx context.Context, listing escrow.Listing) error {
	price, err := listing.PricePerHour().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeCreate, err)
	}
	details := listing.Details()
	_, err = store.db.Exec(ctx, sqlInsertListing,
		listing.ID().String(),
		listing.Owner().String(),
		details.Title,
		details.Description,
		details.StreetAddress,
		details.Latitude,
		details.Longitude,
		price,
		listing.Active(),
		listing.CreatedUnixUTC(),
		listing.UpdatedUnixUTC(),
	)
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeCreate, err)
	}
	return nil
}

func (store queries) GetListing(ctx context.Context, id escrow.ListingID) (escrow.Listing, error) {
	listing, err := scanListing(store.db.QueryRow(ctx, sqlSelectListing, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return escrow.Listing{}, wrapStoreError(errorSubjectListing, errorCodeGet, escrow.ErrUnknownListing)
		}
		return escrow.Listing{}, wrapStoreError(errorSubjectListing, errorCodeGet, err)
	}
	return listing, nil
}

func (store queries) UpdateListing(ctx context.Context, listing escrow.Listing) error {
	price, err := listing.PricePerHour().Storable()
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeUpdate, err)
	}
	details := listing.Details()
	tag, err := store.db.Exec(ctx, sqlUpdateListing,
		listing.ID().String(),
		details.Title,
		details.Description,
		details.StreetAddress,
		details.Latitude,
		details.Longitude,
		price,
		listing.Active(),
		listing.UpdatedUnixUTC(),
	)
	if err != nil {
		return wrapStoreError(errorSubjectListing, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectListing, errorCodeUpdate, escrow.ErrUnknownListing)
	}
	return nil
}

func (store queries) ListListings(ctx context.Context, filter escrow.ListingFilter) ([]escrow.Listing, error) {
	rows, err := store.db.Query(ctx, sqlListListings, filter.Owner.String(), filter.ActiveOnly, filter.Limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectListing, errorCodeList, err)
	}
	defer rows.Close()
	listings := make([]escrow.Listing, 0, filter.Limit)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectListing, errorCodeInvalid, err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectListing, errorCodeList, err)
	}
	return listings, nil
}

func (store queries) AddFavorite(ctx context.Context, party escrow.PartyID, id escrow.ListingID, createdUnixUTC int64) error {
	if _, err := store.db.Exec(ctx, sqlInsertFavorite, party.String(), id.String(), createdUnixUTC); err != nil {
		return wrapStoreError(errorSubjectFavorite, errorCodeCreate, err)
	}
	return nil
}

func (store queries) RemoveFavorite(ctx context.Context, party escrow.PartyID, id escrow.ListingID) error {
	if _, err := store.db.Exec(ctx, sqlDeleteFavorite, party.String(), id.String()); err != nil {
		return wrapStoreError(errorSubjectFavorite, errorCodeDelete, err)
	}
	return nil
}

func (store queries) ListFavorites(ctx context.Context, party escrow.PartyID) ([]escrow.ListingID, error) {
	rows, err := store.db.Query(ctx, sqlListFavorites, party.String())
	if err != nil {
		return nil, wrapStoreError(errorSubjectFavorite, errorCodeList, err)
	}
	defer rows.Close()
	favorites := make([]escrow.ListingID, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, wrapStoreError(errorSubjectFavorite, errorCodeList, err)
		}
		id, err := escrow.NewListingID(value)
		if err != nil {
			return nil, wrapStoreError(errorSubjectFavorite, errorCodeInvalid, err)
		}
		favorites = append(favorites, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectFavorite, errorCodeList, err)
	}
	return favorites, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return escrow.WrapError(errorOperationStore, subject, code, err)
}

func scanBooking(row pgx.Row) (escrow.Booking, error) {
	var (
		snapshot     escrow.BookingSnapshot
		amountValue  int64
		rentValue    int64
		createdValue int64
	)
	err := row.Scan(
		&snapshot.Address,
		&snapshot.Driver,
		&snapshot.Owner,
		&snapshot.Nonce,
		&amountValue,
		&rentValue,
		&snapshot.Status,
		&snapshot.ListingID,
		&snapshot.StartUnixUTC,
		&snapshot.EndUnixUTC,
		&snapshot.Metadata,
		&createdValue,
	)
	if err != nil {
		return escrow.Booking{}, err
	}
	amount, err := escrow.AmountFromStorable(amountValue)
	if err != nil {
		return escrow.Booking{}, err
	}
	rent, err := escrow.AmountFromStorable(rentValue)
	if err != nil {
		return escrow.Booking{}, err
	}
	snapshot.Amount = amount.Uint64()
	snapshot.Rent = rent.Uint64()
	snapshot.CreatedUnixUTC = createdValue
	return escrow.RestoreBooking(snapshot)
}

func scanListing(row pgx.Row) (escrow.Listing, error) {
	var (
		idValue      string
		ownerValue   string
		details      escrow.ListingDetails
		priceValue   int64
		active       bool
		createdValue int64
		updatedValue int64
	)
	err := row.Scan(
		&idValue,
		&ownerValue,
		&details.Title,
		&details.Description,
		&details.StreetAddress,
		&details.Latitude,
		&details.Longitude,
		&priceValue,
		&active,
		&createdValue,
		&updatedValue,
	)
	if err != nil {
		return escrow.Listing{}, err
	}
	id, err := escrow.NewListingID(idValue)
	if err != nil {
		return escrow.Listing{}, err
	}
	owner, err := escrow.NewPartyID(ownerValue)
	if err != nil {
		return escrow.Listing{}, err
	}
	details.PricePerHour, err = escrow.AmountFromStorable(priceValue)
	if err != nil {
		return escrow.Listing{}, err
	}
	return escrow.NewListing(escrow.ListingParams{
		ID:             id,
		Owner:          owner,
		Details:        details,
		Active:         active,
		CreatedUnixUTC: createdValue,
		UpdatedUnixUTC: updatedValue,
	})
}

func scanEntries(rows pgx.Rows) ([]escrow.Entry, error) {
	entries := make([]escrow.Entry, 0)
	for rows.Next() {
		var (
			entryIDValue string
			fromValue    string
			toValue      string
			kindValue    string
			amountValue  int64
			addressValue string
			createdValue int64
		)
		if err := rows.Scan(&entryIDValue, &fromValue, &toValue, &kindValue, &amountValue, &addressValue, &createdValue); err != nil {
			return nil, err
		}
		entryID, err := escrow.NewEntryID(entryIDValue)
		if err != nil {
			return nil, err
		}
		var from escrow.AccountID
		if fromValue != "" {
			from, err = escrow.ParseAccountID(fromValue)
			if err != nil {
				return nil, err
			}
		}
		to, err := escrow.ParseAccountID(toValue)
		if err != nil {
			return nil, err
		}
		kind, err := escrow.ParseEntryKind(kindValue)
		if err != nil {
			return nil, err
		}
		amount, err := escrow.AmountFromStorable(amountValue)
		if err != nil {
			return nil, err
		}
		var address escrow.BookingAddress
		if addressValue != "" {
			address, err = escrow.NewBookingAddress(addressValue)
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, escrow.Entry{
			EntryID:        entryID,
			From:           from,
			To:             to,
			Kind:           kind,
			Amount:         amount,
			BookingAddress: address,
			CreatedUnixUTC: createdValue,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func isBookingConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintBookingPrimary
	}
	return false
}

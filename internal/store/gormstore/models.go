package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Balance represents the balances table, one row per custody account.
type Balance struct {
	AccountID string    `gorm:"size:191;primaryKey"`
	Amount    int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Balance) TableName() string { return "balances" }

// LedgerEntry mirrors the ledger_entries journal table.
type LedgerEntry struct {
	EntryID        string    `gorm:"size:36;primaryKey"`
	FromAccount    *string   `gorm:"size:191;index:idx_entries_from_created,priority:1"`
	ToAccount      string    `gorm:"size:191;not null;index:idx_entries_to_created,priority:1"`
	Kind           string    `gorm:"size:32;not null"`
	Amount         int64     `gorm:"not null"`
	BookingAddress *string   `gorm:"size:36;index:idx_entries_booking"`
	CreatedAt      time.Time `gorm:"not null;index:idx_entries_from_created,priority:2;index:idx_entries_to_created,priority:2"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (entry *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return nil
}

// Booking mirrors the bookings table. Rows exist only while a booking is pending.
type Booking struct {
	Address      string         `gorm:"size:36;primaryKey"`
	Driver       string         `gorm:"size:191;not null;index:idx_bookings_driver_created,priority:1"`
	Owner        string         `gorm:"size:191;not null;index:idx_bookings_owner_created,priority:1"`
	Nonce        string         `gorm:"not null"`
	Amount       int64          `gorm:"not null"`
	Rent         int64          `gorm:"not null;default:0"`
	Status       string         `gorm:"size:16;not null"`
	ListingID    string         `gorm:"size:191"`
	StartUnixUTC int64          `gorm:"not null;default:0"`
	EndUnixUTC   int64          `gorm:"not null;default:0"`
	Metadata     datatypes.JSON `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null;index:idx_bookings_driver_created,priority:2;index:idx_bookings_owner_created,priority:2"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

// Listing mirrors the listings catalog table.
type Listing struct {
	ID            string    `gorm:"size:191;primaryKey"`
	Owner         string    `gorm:"size:191;not null;index:idx_listings_owner_created,priority:1"`
	Title         string    `gorm:"size:255;not null"`
	Description   string    `gorm:"type:text"`
	StreetAddress string    `gorm:"size:255"`
	Latitude      float64   `gorm:"not null"`
	Longitude     float64   `gorm:"not null"`
	PricePerHour  int64     `gorm:"not null"`
	Active        bool      `gorm:"not null;index:idx_listings_active_created,priority:1"`
	CreatedAt     time.Time `gorm:"not null;index:idx_listings_owner_created,priority:2;index:idx_listings_active_created,priority:2"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (Listing) TableName() string { return "listings" }

// Favorite is one bookmarked listing of one party.
type Favorite struct {
	PartyID   string    `gorm:"size:191;primaryKey"`
	ListingID string    `gorm:"size:191;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Favorite) TableName() string { return "favorites" }

// Models lists every table managed by the store, in migration order.
func Models() []any {
	return []any{&Balance{}, &LedgerEntry{}, &Booking{}, &Listing{}, &Favorite{}}
}

// AutoMigrate creates or updates the store schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

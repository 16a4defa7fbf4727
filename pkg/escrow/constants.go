package escrow

const (
	operationOpen    = "open"
	operationCancel  = "cancel"
	operationConfirm = "confirm"
	operationDeposit = "deposit"
	operationPublish = "publish"

	operationCreateListing    = "create_listing"
	operationUpdateListing    = "update_listing"
	operationSetListingActive = "set_listing_active"
	operationAddFavorite      = "add_favorite"
	operationRemoveFavorite   = "remove_favorite"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	// platform fee is platformFeeNumerator/platformFeeDenominator of the escrowed amount, rounded down.
	platformFeeNumerator   Amount = 2
	platformFeeDenominator Amount = 100

	accountPrefixParty  = "party:"
	accountPrefixEscrow = "escrow:"
	accountPrefixRent   = "rent:"

	addressSeparator = "\x00"

	secondsPerHour = 3600

	maxListingTitleLength = 120

	EventBookingOpened    = "booking_opened"
	EventBookingCancelled = "booking_cancelled"
	EventBookingConfirmed = "booking_confirmed"
)

package bookingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type httpHandler struct {
	logger       *zap.Logger
	escrowClient escrowv1.EscrowServiceClient
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	claims := getClaims(ctx)
	ctx.JSON(http.StatusOK, gin.H{
		"user_id":    partyID(ctx),
		"email":      claims.GetUserEmail(),
		"display":    claims.GetUserDisplayName(),
		"avatar_url": claims.GetUserAvatarURL(),
		"roles":      claims.GetUserRoles(),
		"expires":    claims.GetExpiresAt().Unix(),
	})
}

func (handler *httpHandler) handleDeposit(ctx *gin.Context) {
	party := partyID(ctx)
	var request depositRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	_, err := handler.escrowClient.Deposit(ctx.Request.Context(), &escrowv1.DepositRequest{
		PartyId: party,
		Amount:  request.Amount,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "deposit failed", err)
		return
	}
	handler.respondWithWallet(ctx, party)
}

func (handler *httpHandler) handleWallet(ctx *gin.Context) {
	handler.respondWithWallet(ctx, partyID(ctx))
}

func (handler *httpHandler) handleOpenBooking(ctx *gin.Context) {
	party := partyID(ctx)
	var request openBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	nonce := strings.TrimSpace(request.Nonce)
	if nonce == "" {
		nonce = uuid.NewString()
	}

	response, err := handler.escrowClient.OpenBooking(ctx.Request.Context(), &escrowv1.OpenBookingRequest{
		CallerId:     party,
		OwnerId:      request.OwnerID,
		Nonce:        nonce,
		Amount:       request.Amount,
		ListingId:    request.ListingID,
		StartUnixUtc: request.StartUnixUTC,
		EndUnixUtc:   request.EndUnixUTC,
		MetadataJson: string(request.Metadata),
	})
	if err != nil {
		handler.respondEscrowError(ctx, "open booking failed", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"booking": toBookingPayload(response.GetBooking())})
}

func (handler *httpHandler) handleListBookings(ctx *gin.Context) {
	party := partyID(ctx)
	role := ctx.DefaultQuery("role", "driver")

	response, err := handler.escrowClient.ListBookings(ctx.Request.Context(), &escrowv1.ListBookingsRequest{
		PartyId: party,
		Role:    role,
		Limit:   bookingListLimit,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "list bookings failed", err)
		return
	}
	bookings := make([]bookingPayload, 0, len(response.GetBookings()))
	for _, booking := range response.GetBookings() {
		bookings = append(bookings, toBookingPayload(booking))
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (handler *httpHandler) handleGetBooking(ctx *gin.Context) {
	party := partyID(ctx)
	response, err := handler.escrowClient.GetBooking(ctx.Request.Context(), &escrowv1.GetBookingRequest{Address: ctx.Param("address")})
	if err != nil {
		handler.respondEscrowError(ctx, "get booking failed", err)
		return
	}
	booking := response.GetBooking()
	if booking.GetDriverId() != party && booking.GetOwnerId() != party {
		ctx.JSON(http.StatusNotFound, errorResponse("unknown_booking", "booking not found"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"booking": toBookingPayload(booking)})
}

func (handler *httpHandler) handleCancelBooking(ctx *gin.Context) {
	party := partyID(ctx)
	var request locatorRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	response, err := handler.escrowClient.CancelBooking(ctx.Request.Context(), &escrowv1.CancelBookingRequest{
		CallerId: party,
		Address:  ctx.Param("address"),
		DriverId: request.DriverID,
		Nonce:    request.Nonce,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "cancel booking failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"booking": toBookingPayload(response.GetBooking())})
}

func (handler *httpHandler) handleConfirmBooking(ctx *gin.Context) {
	party := partyID(ctx)
	var request locatorRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	response, err := handler.escrowClient.ConfirmBooking(ctx.Request.Context(), &escrowv1.ConfirmBookingRequest{
		CallerId: party,
		Address:  ctx.Param("address"),
		DriverId: request.DriverID,
		Nonce:    request.Nonce,
	})
	if err != nil {
		handler.respondEscrowError(ctx, "confirm booking failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"booking":      toBookingPayload(response.GetBooking()),
		"owner_amount": response.GetOwnerAmount(),
		"platform_fee": response.GetPlatformFee(),
	})
}

func (handler *httpHandler) respondWithWallet(ctx *gin.Context, party string) {
	wallet, err := handler.fetchWallet(ctx.Request.Context(), party)
	if err != nil {
		handler.logger.Error("wallet fetch failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("escrow_error", "wallet unavailable"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

func (handler *httpHandler) fetchWallet(ctx context.Context, partyID string) (*walletResponse, error) {
	requestCtx, cancel := context.WithTimeout(ctx, handler.cfg.EscrowTimeout)
	defer cancel()
	balanceResp, err := handler.escrowClient.GetBalance(ctx, &escrowv1.BalanceRequest{PartyId: partyID})
	if err != nil {
		return nil, err
	}

	entriesCtx, entriesCancel := context.WithTimeout(ctx, handler.cfg.EscrowTimeout)
	defer entriesCancel()
	entriesResp, err := handler.escrowClient.ListEntries(entriesCtx, &escrowv1.ListEntriesRequest{
		PartyId: partyID,
		Limit:   walletHistoryLimit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]entryPayload, 0, len(entriesResp.GetEntries()))
	for _, entry := range entriesResp.GetEntries() {
		entries = append(entries, entryPayload{
			EntryID:        entry.EntryId,
			Kind:           entry.Kind,
			From:           entry.FromAccount,
			To:             entry.ToAccount,
			Amount:         entry.Amount,
			BookingAddress: entry.BookingAddress,
			CreatedUnixUTC: entry.CreatedUnixUtc,
		})
	}
	return &walletResponse{Balance: balanceResp.GetAmount(), Entries: entries}, nil
}

// respondEscrowError translates an escrow gRPC status into an HTTP error envelope.
func (handler *httpHandler) respondEscrowError(ctx *gin.Context, action string, err error) {
	statusInfo, ok := status.FromError(err)
	if !ok {
		handler.logger.Error(action, zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("escrow_error", action))
		return
	}
	httpStatus := httpStatusFor(statusInfo.Code())
	if httpStatus == http.StatusBadGateway {
		handler.logger.Error(action, zap.Error(err))
		ctx.JSON(httpStatus, errorResponse("escrow_error", action))
		return
	}
	ctx.JSON(httpStatus, errorResponse(statusInfo.Message(), action))
}

func httpStatusFor(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition:
		return http.StatusConflict
	case codes.OutOfRange:
		return http.StatusUnprocessableEntity
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// partyID returns the caller set by requireParty.
func partyID(ctx *gin.Context) string {
	return ctx.GetString(partyContextKey)
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	claimsValue, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*sessionvalidator.Claims)
	return claims
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func toBookingPayload(booking *escrowv1.Booking) bookingPayload {
	if booking == nil {
		return bookingPayload{}
	}
	metadata := json.RawMessage("{}")
	if booking.MetadataJson != "" {
		metadata = json.RawMessage(booking.MetadataJson)
	}
	return bookingPayload{
		Address:        booking.Address,
		DriverID:       booking.DriverId,
		OwnerID:        booking.OwnerId,
		Nonce:          booking.Nonce,
		Amount:         booking.Amount,
		Rent:           booking.Rent,
		Status:         booking.Status,
		ListingID:      booking.ListingId,
		StartUnixUTC:   booking.StartUnixUtc,
		EndUnixUTC:     booking.EndUnixUtc,
		Metadata:       metadata,
		CreatedUnixUTC: booking.CreatedUnixUtc,
	}
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

type openBookingRequest struct {
	OwnerID      string          `json:"owner_id"`
	Nonce        string          `json:"nonce"`
	Amount       uint64          `json:"amount"`
	ListingID    string          `json:"listing_id"`
	StartUnixUTC int64           `json:"start_unix_utc"`
	EndUnixUTC   int64           `json:"end_unix_utc"`
	Metadata     json.RawMessage `json:"metadata"`
}

type locatorRequest struct {
	DriverID string `json:"driver_id"`
	Nonce    string `json:"nonce"`
}

type walletResponse struct {
	Balance uint64         `json:"balance"`
	Entries []entryPayload `json:"entries"`
}

type entryPayload struct {
	EntryID        string `json:"entry_id"`
	Kind           string `json:"kind"`
	From           string `json:"from,omitempty"`
	To             string `json:"to"`
	Amount         uint64 `json:"amount"`
	BookingAddress string `json:"booking_address,omitempty"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

type bookingPayload struct {
	Address        string          `json:"address"`
	DriverID       string          `json:"driver_id"`
	OwnerID        string          `json:"owner_id"`
	Nonce          string          `json:"nonce"`
	Amount         uint64          `json:"amount"`
	Rent           uint64          `json:"rent"`
	Status         string          `json:"status"`
	ListingID      string          `json:"listing_id,omitempty"`
	StartUnixUTC   int64           `json:"start_unix_utc,omitempty"`
	EndUnixUTC     int64           `json:"end_unix_utc,omitempty"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

// Package bookingapi serves the browser-facing booking API. It authenticates
// TAuth sessions and forwards booking operations to the escrow gRPC service.
package bookingapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	claimsContextKey    = "auth_claims"
	partyContextKey     = "party_id"
	requestIDHeader     = "X-Request-ID"
	shutdownGracePeriod = 5 * time.Second
	corsMaxAge          = 12 * time.Hour
)

// Run dials escrowd, then serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := dialEscrow(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect escrow: %w", err)
	}
	defer conn.Close()

	sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:       logger,
		escrowClient: escrowv1.NewEscrowServiceClient(conn),
	}
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(cfg, handler, sessionValidator),
	}
	return serve(ctx, logger, server)
}

// dialEscrow opens the escrowd connection. Every RPC made through it is bounded by cfg.EscrowTimeout.
func dialEscrow(ctx context.Context, cfg Config) (*grpc.ClientConn, error) {
	transport := credentials.NewClientTLSFromCert(nil, "")
	if cfg.EscrowInsecure {
		transport = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(cfg.EscrowAddress,
		grpc.WithTransportCredentials(transport),
		grpc.WithChainUnaryInterceptor(callTimeout(cfg.EscrowTimeout)),
	)
	if err != nil {
		return nil, err
	}
	conn.Connect()
	if err := waitForClientReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func callTimeout(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, conn *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return invoker(callCtx, method, req, reply, conn, opts...)
	}
}

func serve(ctx context.Context, logger *zap.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookingapi listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(handler.logger), cors.New(corsConfig(cfg)))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(validator.GinMiddleware(claimsContextKey), requireParty())
	api.GET("/session", handler.handleSession)
	registerWalletRoutes(api, handler)
	registerBookingRoutes(api.Group("/bookings"), handler)
	registerListingRoutes(api.Group("/listings"), handler)
	registerFavoriteRoutes(api.Group("/favorites"), handler)
	return router
}

func corsConfig(cfg Config) cors.Config {
	return cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
}

func registerWalletRoutes(api *gin.RouterGroup, handler *httpHandler) {
	api.POST("/deposits", handler.handleDeposit)
	api.GET("/wallet", handler.handleWallet)
}

func registerBookingRoutes(bookings *gin.RouterGroup, handler *httpHandler) {
	bookings.POST("", handler.handleOpenBooking)
	bookings.GET("", handler.handleListBookings)
	bookings.GET("/:address", handler.handleGetBooking)
	bookings.POST("/:address/cancel", handler.handleCancelBooking)
	bookings.POST("/:address/confirm", handler.handleConfirmBooking)
}

func registerListingRoutes(listings *gin.RouterGroup, handler *httpHandler) {
	listings.POST("", handler.handleCreateListing)
	listings.GET("", handler.handleBrowseListings)
	listings.GET("/mine", handler.handleMyListings)
	listings.GET("/:id", handler.handleGetListing)
	listings.PUT("/:id", handler.handleUpdateListing)
	listings.DELETE("/:id", handler.handleWithdrawListing)
	listings.POST("/:id/activate", handler.handleActivateListing)
}

func registerFavoriteRoutes(favorites *gin.RouterGroup, handler *httpHandler) {
	favorites.GET("", handler.handleListFavorites)
	favorites.PUT("/:id", handler.handleAddFavorite)
	favorites.DELETE("/:id", handler.handleRemoveFavorite)
}

// requestLogger tags each request with an id, echoing a caller-supplied one.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := strings.TrimSpace(ctx.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(requestIDHeader, requestID)
		started := time.Now()
		ctx.Next()
		logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", ctx.Request.Method),
			zap.String("route", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

// requireParty resolves the session user into the party id used for escrow calls.
func requireParty() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims := getClaims(ctx)
		if claims == nil || strings.TrimSpace(claims.GetUserID()) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
			return
		}
		ctx.Set(partyContextKey, claims.GetUserID())
		ctx.Next()
	}
}

func waitForClientReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return errors.New("grpc connection shutdown before ready")
		}
		if !conn.WaitForStateChange(ctx, state) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errors.New("grpc connection failed to reach ready state")
		}
	}
}

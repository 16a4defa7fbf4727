package escrowv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	EscrowService_OpenBooking_FullMethodName      = "/escrow.v1.EscrowService/OpenBooking"
	EscrowService_CancelBooking_FullMethodName    = "/escrow.v1.EscrowService/CancelBooking"
	EscrowService_ConfirmBooking_FullMethodName   = "/escrow.v1.EscrowService/ConfirmBooking"
	EscrowService_GetBooking_FullMethodName       = "/escrow.v1.EscrowService/GetBooking"
	EscrowService_ListBookings_FullMethodName     = "/escrow.v1.EscrowService/ListBookings"
	EscrowService_Deposit_FullMethodName          = "/escrow.v1.EscrowService/Deposit"
	EscrowService_GetBalance_FullMethodName       = "/escrow.v1.EscrowService/GetBalance"
	EscrowService_ListEntries_FullMethodName      = "/escrow.v1.EscrowService/ListEntries"
	EscrowService_CreateListing_FullMethodName    = "/escrow.v1.EscrowService/CreateListing"
	EscrowService_UpdateListing_FullMethodName    = "/escrow.v1.EscrowService/UpdateListing"
	EscrowService_SetListingActive_FullMethodName = "/escrow.v1.EscrowService/SetListingActive"
	EscrowService_GetListing_FullMethodName       = "/escrow.v1.EscrowService/GetListing"
	EscrowService_ListListings_FullMethodName     = "/escrow.v1.EscrowService/ListListings"
	EscrowService_AddFavorite_FullMethodName      = "/escrow.v1.EscrowService/AddFavorite"
	EscrowService_RemoveFavorite_FullMethodName   = "/escrow.v1.EscrowService/RemoveFavorite"
	EscrowService_ListFavorites_FullMethodName    = "/escrow.v1.EscrowService/ListFavorites"
)

// EscrowServiceClient is the client API for EscrowService.
type EscrowServiceClient interface {
	OpenBooking(ctx context.Context, in *OpenBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	ConfirmBooking(ctx context.Context, in *ConfirmBookingRequest, opts ...grpc.CallOption) (*ConfirmBookingResponse, error)
	GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error)
	Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*Empty, error)
	GetBalance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error)
	ListEntries(ctx context.Context, in *ListEntriesRequest, opts ...grpc.CallOption) (*ListEntriesResponse, error)
	CreateListing(ctx context.Context, in *CreateListingRequest, opts ...grpc.CallOption) (*ListingResponse, error)
	UpdateListing(ctx context.Context, in *UpdateListingRequest, opts ...grpc.CallOption) (*ListingResponse, error)
	SetListingActive(ctx context.Context, in *SetListingActiveRequest, opts ...grpc.CallOption) (*ListingResponse, error)
	GetListing(ctx context.Context, in *GetListingRequest, opts ...grpc.CallOption) (*ListingResponse, error)
	ListListings(ctx context.Context, in *ListListingsRequest, opts ...grpc.CallOption) (*ListListingsResponse, error)
	AddFavorite(ctx context.Context, in *AddFavoriteRequest, opts ...grpc.CallOption) (*FavoritesResponse, error)
	RemoveFavorite(ctx context.Context, in *RemoveFavoriteRequest, opts ...grpc.CallOption) (*FavoritesResponse, error)
	ListFavorites(ctx context.Context, in *ListFavoritesRequest, opts ...grpc.CallOption) (*FavoritesResponse, error)
}

type escrowServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEscrowServiceClient returns a client that always selects the JSON codec.
func NewEscrowServiceClient(cc grpc.ClientConnInterface) EscrowServiceClient {
	return &escrowServiceClient{cc: cc}
}

func (c *escrowServiceClient) invoke(ctx context.Context, method string, in any, out any, opts []grpc.CallOption) error {
	callOptions := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOptions...)
}

func (c *escrowServiceClient) OpenBooking(ctx context.Context, in *OpenBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	out := new(BookingResponse)
	if err := c.invoke(ctx, EscrowService_OpenBooking_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	out := new(BookingResponse)
	if err := c.invoke(ctx, EscrowService_CancelBooking_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) ConfirmBooking(ctx context.Context, in *ConfirmBookingRequest, opts ...grpc.CallOption) (*ConfirmBookingResponse, error) {
	out := new(ConfirmBookingResponse)
	if err := c.invoke(ctx, EscrowService_ConfirmBooking_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	out := new(BookingResponse)
	if err := c.invoke(ctx, EscrowService_GetBooking_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.invoke(ctx, EscrowService_ListBookings_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, EscrowService_Deposit_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) GetBalance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.invoke(ctx, EscrowService_GetBalance_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) ListEntries(ctx context.Context, in *ListEntriesRequest, opts ...grpc.CallOption) (*ListEntriesResponse, error) {
	out := new(ListEntriesResponse)
	if err := c.invoke(ctx, EscrowService_ListEntries_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) CreateListing(ctx context.Context, in *CreateListingRequest, opts ...grpc.CallOption) (*ListingResponse, error) {
	out := new(ListingResponse)
	if err := c.invoke(ctx, EscrowService_CreateListing_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) UpdateListing(ctx context.Context, in *UpdateListingRequest, opts ...grpc.CallOption) (*ListingResponse, error) {
	out := new(ListingResponse)
	if err := c.invoke(ctx, EscrowService_UpdateListing_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) SetListingActive(ctx context.Context, in *SetListingActiveRequest, opts ...grpc.CallOption) (*ListingResponse, error) {
	out := new(ListingResponse)
	if err := c.invoke(ctx, EscrowService_SetListingActive_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) GetListing(ctx context.Context, in *GetListingRequest, opts ...grpc.CallOption) (*ListingResponse, error) {
	out := new(ListingResponse)
	if err := c.invoke(ctx, EscrowService_GetListing_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) ListListings(ctx context.Context, in *ListListingsRequest, opts ...grpc.CallOption) (*ListListingsResponse, error) {
	out := new(ListListingsResponse)
	if err := c.invoke(ctx, EscrowService_ListListings_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) AddFavorite(ctx context.Context, in *AddFavoriteRequest, opts ...grpc.CallOption) (*FavoritesResponse, error) {
	out := new(FavoritesResponse)
	if err := c.invoke(ctx, EscrowService_AddFavorite_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) RemoveFavorite(ctx context.Context, in *RemoveFavoriteRequest, opts ...grpc.CallOption) (*FavoritesResponse, error) {
	out := new(FavoritesResponse)
	if err := c.invoke(ctx, EscrowService_RemoveFavorite_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *escrowServiceClient) ListFavorites(ctx context.Context, in *ListFavoritesRequest, opts ...grpc.CallOption) (*FavoritesResponse, error) {
	out := new(FavoritesResponse)
	if err := c.invoke(ctx, EscrowService_ListFavorites_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// EscrowServiceServer is the server API for EscrowService.
// Implementations must embed UnimplementedEscrowServiceServer.
type EscrowServiceServer interface {
	OpenBooking(context.Context, *OpenBookingRequest) (*BookingResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error)
	ConfirmBooking(context.Context, *ConfirmBookingRequest) (*ConfirmBookingResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*BookingResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	Deposit(context.Context, *DepositRequest) (*Empty, error)
	GetBalance(context.Context, *BalanceRequest) (*BalanceResponse, error)
	ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error)
	CreateListing(context.Context, *CreateListingRequest) (*ListingResponse, error)
	UpdateListing(context.Context, *UpdateListingRequest) (*ListingResponse, error)
	SetListingActive(context.Context, *SetListingActiveRequest) (*ListingResponse, error)
	GetListing(context.Context, *GetListingRequest) (*ListingResponse, error)
	ListListings(context.Context, *ListListingsRequest) (*ListListingsResponse, error)
	AddFavorite(context.Context, *AddFavoriteRequest) (*FavoritesResponse, error)
	RemoveFavorite(context.Context, *RemoveFavoriteRequest) (*FavoritesResponse, error)
	ListFavorites(context.Context, *ListFavoritesRequest) (*FavoritesResponse, error)
	mustEmbedUnimplementedEscrowServiceServer()
}

// UnimplementedEscrowServiceServer answers every method with codes.Unimplemented.
type UnimplementedEscrowServiceServer struct{}

func (UnimplementedEscrowServiceServer) OpenBooking(context.Context, *OpenBookingRequest) (*BookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method OpenBooking not implemented")
}
func (UnimplementedEscrowServiceServer) CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CancelBooking not implemented")
}
func (UnimplementedEscrowServiceServer) ConfirmBooking(context.Context, *ConfirmBookingRequest) (*ConfirmBookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ConfirmBooking not implemented")
}
func (UnimplementedEscrowServiceServer) GetBooking(context.Context, *GetBookingRequest) (*BookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBooking not implemented")
}
func (UnimplementedEscrowServiceServer) ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListBookings not implemented")
}
func (UnimplementedEscrowServiceServer) Deposit(context.Context, *DepositRequest) (*Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Deposit not implemented")
}
func (UnimplementedEscrowServiceServer) GetBalance(context.Context, *BalanceRequest) (*BalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBalance not implemented")
}
func (UnimplementedEscrowServiceServer) ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListEntries not implemented")
}
func (UnimplementedEscrowServiceServer) CreateListing(context.Context, *CreateListingRequest) (*ListingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateListing not implemented")
}
func (UnimplementedEscrowServiceServer) UpdateListing(context.Context, *UpdateListingRequest) (*ListingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateListing not implemented")
}
func (UnimplementedEscrowServiceServer) SetListingActive(context.Context, *SetListingActiveRequest) (*ListingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SetListingActive not implemented")
}
func (UnimplementedEscrowServiceServer) GetListing(context.Context, *GetListingRequest) (*ListingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetListing not implemented")
}
func (UnimplementedEscrowServiceServer) ListListings(context.Context, *ListListingsRequest) (*ListListingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListListings not implemented")
}
func (UnimplementedEscrowServiceServer) AddFavorite(context.Context, *AddFavoriteRequest) (*FavoritesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AddFavorite not implemented")
}
func (UnimplementedEscrowServiceServer) RemoveFavorite(context.Context, *RemoveFavoriteRequest) (*FavoritesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RemoveFavorite not implemented")
}
func (UnimplementedEscrowServiceServer) ListFavorites(context.Context, *ListFavoritesRequest) (*FavoritesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListFavorites not implemented")
}
func (UnimplementedEscrowServiceServer) mustEmbedUnimplementedEscrowServiceServer() {}

// RegisterEscrowServiceServer registers srv on s.
func RegisterEscrowServiceServer(s grpc.ServiceRegistrar, srv EscrowServiceServer) {
	s.RegisterService(&EscrowService_ServiceDesc, srv)
}

func unaryHandler[Request any, Response any](
	fullMethod string,
	call func(EscrowServiceServer, context.Context, *Request) (*Response, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Request)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EscrowServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EscrowServiceServer), ctx, req.(*Request))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EscrowService_ServiceDesc is the grpc.ServiceDesc for EscrowService.
var EscrowService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "escrow.v1.EscrowService",
	HandlerType: (*EscrowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "OpenBooking",
			Handler:    unaryHandler(EscrowService_OpenBooking_FullMethodName, EscrowServiceServer.OpenBooking),
		},
		{
			MethodName: "CancelBooking",
			Handler:    unaryHandler(EscrowService_CancelBooking_FullMethodName, EscrowServiceServer.CancelBooking),
		},
		{
			MethodName: "ConfirmBooking",
			Handler:    unaryHandler(EscrowService_ConfirmBooking_FullMethodName, EscrowServiceServer.ConfirmBooking),
		},
		{
			MethodName: "GetBooking",
			Handler:    unaryHandler(EscrowService_GetBooking_FullMethodName, EscrowServiceServer.GetBooking),
		},
		{
			MethodName: "ListBookings",
			Handler:    unaryHandler(EscrowService_ListBookings_FullMethodName, EscrowServiceServer.ListBookings),
		},
		{
			MethodName: "Deposit",
			Handler:    unaryHandler(EscrowService_Deposit_FullMethodName, EscrowServiceServer.Deposit),
		},
		{
			MethodName: "GetBalance",
			Handler:    unaryHandler(EscrowService_GetBalance_FullMethodName, EscrowServiceServer.GetBalance),
		},
		{
			MethodName: "ListEntries",
			Handler:    unaryHandler(EscrowService_ListEntries_FullMethodName, EscrowServiceServer.ListEntries),
		},
		{
			MethodName: "CreateListing",
			Handler:    unaryHandler(EscrowService_CreateListing_FullMethodName, EscrowServiceServer.CreateListing),
		},
		{
			MethodName: "UpdateListing",
			Handler:    unaryHandler(EscrowService_UpdateListing_FullMethodName, EscrowServiceServer.UpdateListing),
		},
		{
			MethodName: "SetListingActive",
			Handler:    unaryHandler(EscrowService_SetListingActive_FullMethodName, EscrowServiceServer.SetListingActive),
		},
		{
			MethodName: "GetListing",
			Handler:    unaryHandler(EscrowService_GetListing_FullMethodName, EscrowServiceServer.GetListing),
		},
		{
			MethodName: "ListListings",
			Handler:    unaryHandler(EscrowService_ListListings_FullMethodName, EscrowServiceServer.ListListings),
		},
		{
			MethodName: "AddFavorite",
			Handler:    unaryHandler(EscrowService_AddFavorite_FullMethodName, EscrowServiceServer.AddFavorite),
		},
		{
			MethodName: "RemoveFavorite",
			Handler:    unaryHandler(EscrowService_RemoveFavorite_FullMethodName, EscrowServiceServer.RemoveFavorite),
		},
		{
			MethodName: "ListFavorites",
			Handler:    unaryHandler(EscrowService_ListFavorites_FullMethodName, EscrowServiceServer.ListFavorites),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "escrow.v1",
}

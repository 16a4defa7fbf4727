package escrow

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing escrow operation.
type OperationLog struct {
	Operation   string
	Caller      PartyID
	Address     BookingAddress
	Listing     ListingID
	Amount      Amount
	OwnerAmount Amount
	PlatformFee Amount
	Status      string
	Error       error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithEventPublisher wires a sink for committed booking lifecycle events.
func WithEventPublisher(publisher EventPublisher) ServiceOption {
	return func(service *Service) {
		service.publisher = publisher
	}
}

// WithBookingCache wires a read-through cache used by Get.
func WithBookingCache(cache BookingCache) ServiceOption {
	return func(service *Service) {
		service.cache = cache
	}
}

// WithRecordRent charges drivers a storage deposit per booking, returned when the record is destroyed.
func WithRecordRent(rent Amount) ServiceOption {
	return func(service *Service) {
		service.rent = rent
	}
}

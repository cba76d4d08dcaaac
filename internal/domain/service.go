package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID    int
	Name  string
	Price decimal.Decimal
}

// ServiceSelection is a caller's request to attach a service to a booking.
// A zero Quantity means the caller did not specify one.
type ServiceSelection struct {
	ServiceID int
	Quantity  int
}

// ServiceLine is a service attached to a booking.
type ServiceLine struct {
	ServiceID int
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type ServiceRepository interface {
	GetAll(ctx context.Context) ([]Service, error)
	GetByIds(ctx context.Context, ids []int) ([]Service, error)
}

type UnknownServicePolicy string

const (
	// UnknownServiceSkip drops service ids that do not resolve to a service.
	UnknownServiceSkip UnknownServicePolicy = "skip"
	// UnknownServiceReject fails the operation when a service id does not resolve.
	UnknownServiceReject UnknownServicePolicy = "reject"
)

func ParseUnknownServicePolicy(s string) (UnknownServicePolicy, error) {
	switch p := UnknownServicePolicy(s); p {
	case UnknownServiceSkip, UnknownServiceReject:
		return p, nil
	default:
		return "", validationError("unknown service policy %q", s)
	}
}

package mocks

import (
	"context"

	"tgwallet/pkg/cryptocloud"
	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/phonecheck"

	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

var _ cryptocloud.Gateway = (*Gateway)(nil)

func (_m *Gateway) CreateInvoice(ctx context.Context, request cryptocloud.CreateInvoiceRequest) (cryptocloud.CreateInvoiceResult, error) {
	ret := _m.Called(ctx, request)
	res, _ := ret.Get(0).(cryptocloud.CreateInvoiceResult)
	return res, ret.Error(1)
}

func (_m *Gateway) InvoiceStatus(ctx context.Context, orderID string) (cryptocloud.InvoiceStatusResult, error) {
	ret := _m.Called(ctx, orderID)
	res, _ := ret.Get(0).(cryptocloud.InvoiceStatusResult)
	return res, ret.Error(1)
}

type GeoLocator struct {
	mock.Mock
}

var _ ipapi.GeoLocator = (*GeoLocator)(nil)

func (_m *GeoLocator) Lookup(ctx context.Context, ip string) (ipapi.LookupResult, error) {
	ret := _m.Called(ctx, ip)
	res, _ := ret.Get(0).(ipapi.LookupResult)
	return res, ret.Error(1)
}

type PhoneProvider struct {
	mock.Mock
}

var _ phonecheck.Provider = (*PhoneProvider)(nil)

func (_m *PhoneProvider) Check(ctx context.Context, phone string) (phonecheck.Result, error) {
	ret := _m.Called(ctx, phone)
	res, _ := ret.Get(0).(phonecheck.Result)
	return res, ret.Error(1)
}

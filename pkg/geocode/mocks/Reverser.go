// Package mocks provides test doubles for the geocode package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	geocode "github.com/sells-group/revgeo/pkg/geocode"
)

// MockReverser is a mock type for the Reverser interface.
type MockReverser struct {
	mock.Mock
}

// Name provides a mock function with no fields
func (_m *MockReverser) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		return "mock"
	}

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// ReverseGeocode provides a mock function with given fields: ctx, lat, lng
func (_m *MockReverser) ReverseGeocode(ctx context.Context, lat float64, lng float64) (*geocode.ReverseResult, error) {
	ret := _m.Called(ctx, lat, lng)

	if len(ret) == 0 {
		panic("no return value specified for ReverseGeocode")
	}

	var r0 *geocode.ReverseResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64) (*geocode.ReverseResult, error)); ok {
		return rf(ctx, lat, lng)
	}
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64) *geocode.ReverseResult); ok {
		r0 = rf(ctx, lat, lng)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geocode.ReverseResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, float64, float64) error); ok {
		r1 = rf(ctx, lat, lng)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockReverser creates a new instance of MockReverser. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockReverser(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReverser {
	m := &MockReverser{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

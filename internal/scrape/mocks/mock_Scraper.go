// Package mocks provides test doubles for scrape adapters.
package mocks

import (
	"context"

	model "github.com/sells-group/webfetch/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockScraper is a mock type for the Scraper interface.
type MockScraper struct {
	mock.Mock
}

// Scrape provides a mock function with given fields: ctx, url
func (_m *MockScraper) Scrape(ctx context.Context, url string) (*model.ScrapeResult, error) {
	ret := _m.Called(ctx, url)

	if len(ret) == 0 {
		panic("no return value specified for Scrape")
	}

	var r0 *model.ScrapeResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.ScrapeResult, error)); ok {
		return rf(ctx, url)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.ScrapeResult); ok {
		r0 = rf(ctx, url)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.ScrapeResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, url)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Service provides a mock function with given fields:
func (_m *MockScraper) Service() model.Service {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Service")
	}

	var r0 model.Service
	if rf, ok := ret.Get(0).(func() model.Service); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(model.Service)
	}

	return r0
}

// NewMockScraper creates a new instance of MockScraper.
func NewMockScraper(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockScraper {
	mock := &MockScraper{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
)

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) FindByShortURL(ctx context.Context, shortURL string) (*domain.Link, error) {
	args := m.Called(ctx, shortURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) List(ctx context.Context, page, limit int) ([]domain.Link, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) ResolveAndIncrement(ctx context.Context, shortURL string) (*domain.Link, error) {
	args := m.Called(ctx, shortURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id string) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) StreamAll(ctx context.Context, fn func(*domain.Link) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

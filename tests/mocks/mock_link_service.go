package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
)

type MockLinkService struct {
	mock.Mock
}

var _ interface {
	Create(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error)
	Resolve(ctx context.Context, shortURL string) (string, error)
	List(ctx context.Context, page, limit int) (*domain.LinkPage, error)
	Delete(ctx context.Context, id string) error
	ExportAll(ctx context.Context) (string, error)
} = (*MockLinkService)(nil)

func (m *MockLinkService) Create(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) Resolve(ctx context.Context, shortURL string) (string, error) {
	args := m.Called(ctx, shortURL)
	return args.String(0), args.Error(1)
}

func (m *MockLinkService) List(ctx context.Context, page, limit int) (*domain.LinkPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkPage), args.Error(1)
}

func (m *MockLinkService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkService) ExportAll(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gabrielmatsan/brev-ly/internal/storage"
)

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) UploadFile(ctx context.Context, input storage.UploadFileInput) (*storage.UploadedFile, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadedFile), args.Error(1)
}

func (m *MockObjectStorage) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateUniqueFileName(baseName string) string {
	args := m.Called(baseName)
	return args.String(0)
}

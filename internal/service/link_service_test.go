package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
	"github.com/gabrielmatsan/brev-ly/internal/storage"
	"github.com/gabrielmatsan/brev-ly/tests/mocks"
)

func newTestService() (*LinkService, *mocks.MockLinkRepository, *mocks.MockObjectStorage) {
	mockRepo := new(mocks.MockLinkRepository)
	mockStorage := new(mocks.MockObjectStorage)
	return NewLinkService(mockRepo, mockStorage), mockRepo, mockStorage
}

func TestCreate_Success_GeneratedCode(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
	}

	mockRepo.On("FindByShortURL", ctx, mock.MatchedBy(func(code string) bool {
		return len(code) == 6
	})).Return(nil, pgx.ErrNoRows).Once()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(link *domain.Link) bool {
		return link.OriginalURL == "https://example.com" &&
			len(link.ShortURL) == 6 &&
			len(link.ID) == 32
	})).Return(nil).Once()

	link, err := service.Create(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, link)
	assert.Equal(t, "https://example.com", link.OriginalURL)
	assert.Len(t, link.ShortURL, 6)
	assert.Regexp(t, "^[A-Z0-9]+$", link.ShortURL)
	mockRepo.AssertExpectations(t)
}

func TestCreate_Success_CustomCode(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
		ShortURL:    "mylink",
	}

	mockRepo.On("FindByShortURL", ctx, "mylink").Return(nil, pgx.ErrNoRows).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(link *domain.Link) bool {
		return link.ShortURL == "mylink"
	})).Return(nil).Once()

	link, err := service.Create(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, "mylink", link.ShortURL)
	mockRepo.AssertExpectations(t)
}

func TestCreate_CustomCodeTaken(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
		ShortURL:    "mylink",
	}

	existing := &domain.Link{ID: "abc", ShortURL: "mylink"}
	mockRepo.On("FindByShortURL", ctx, "mylink").Return(existing, nil).Once()

	link, err := service.Create(ctx, req)

	assert.ErrorIs(t, err, domain.ErrShortURLExists)
	assert.Nil(t, link)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_CustomCode_InsertRaceLost(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
		ShortURL:    "mylink",
	}

	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "short_url_unique",
	}

	mockRepo.On("FindByShortURL", ctx, "mylink").Return(nil, pgx.ErrNoRows).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Link")).Return(pgErr).Once()

	link, err := service.Create(ctx, req)

	assert.ErrorIs(t, err, domain.ErrShortURLExists)
	assert.Nil(t, link)
	mockRepo.AssertExpectations(t)
}

func TestCreate_GeneratedCode_RetryAfterCollision(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
	}

	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "short_url_unique",
	}

	mockRepo.On("FindByShortURL", ctx, mock.AnythingOfType("string")).
		Return(nil, pgx.ErrNoRows).Twice()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Link")).
		Return(pgErr).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Link")).
		Return(nil).Once()

	link, err := service.Create(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, link)
	mockRepo.AssertExpectations(t)
}

func TestCreate_GeneratedCode_PreCheckCollisionRegenerates(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
	}

	taken := &domain.Link{ID: "abc"}
	mockRepo.On("FindByShortURL", ctx, mock.AnythingOfType("string")).
		Return(taken, nil).Once()
	mockRepo.On("FindByShortURL", ctx, mock.AnythingOfType("string")).
		Return(nil, pgx.ErrNoRows).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Link")).
		Return(nil).Once()

	link, err := service.Create(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, link)
	mockRepo.AssertExpectations(t)
}

func TestCreate_GeneratedCode_GivesUpAfterMaxAttempts(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	req := &domain.CreateLinkRequest{
		OriginalURL: "https://example.com",
	}

	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "short_url_unique",
	}

	mockRepo.On("FindByShortURL", ctx, mock.AnythingOfType("string")).
		Return(nil, pgx.ErrNoRows).Times(maxCodeAttempts)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Link")).
		Return(pgErr).Times(maxCodeAttempts)

	link, err := service.Create(ctx, req)

	assert.Error(t, err)
	assert.Nil(t, link)
	mockRepo.AssertExpectations(t)
}

func TestResolve_Success(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	now := time.Now()
	resolved := &domain.Link{
		ID:          "abc",
		OriginalURL: "https://example.com",
		ShortURL:    "ABC123",
		Visits:      5,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}

	mockRepo.On("ResolveAndIncrement", ctx, "ABC123").Return(resolved, nil).Once()

	originalURL, err := service.Resolve(ctx, "ABC123")

	assert.NoError(t, err)
	assert.Equal(t, "https://example.com", originalURL)
	mockRepo.AssertExpectations(t)
}

func TestResolve_NotFound(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	mockRepo.On("ResolveAndIncrement", ctx, "NOPE11").Return(nil, pgx.ErrNoRows).Once()

	originalURL, err := service.Resolve(ctx, "NOPE11")

	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.Empty(t, originalURL)
	mockRepo.AssertExpectations(t)
}

func TestList_PaginationMath(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	links := make([]domain.Link, 5)
	mockRepo.On("List", mock.Anything, 2, 5).Return(links, nil).Once()
	mockRepo.On("Count", mock.Anything).Return(int64(12), nil).Once()

	result, err := service.List(ctx, 2, 5)

	assert.NoError(t, err)
	assert.Len(t, result.Links, 5)
	assert.Equal(t, 2, result.Pagination.Page)
	assert.Equal(t, 5, result.Pagination.Limit)
	assert.Equal(t, int64(12), result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	mockRepo.AssertExpectations(t)
}

func TestList_DefaultsAndEmptyResult(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	mockRepo.On("List", mock.Anything, 1, 10).Return(nil, nil).Once()
	mockRepo.On("Count", mock.Anything).Return(int64(0), nil).Once()

	result, err := service.List(ctx, 0, 0)

	assert.NoError(t, err)
	assert.NotNil(t, result.Links, "links should marshal as [] rather than null")
	assert.Empty(t, result.Links)
	assert.Equal(t, 0, result.Pagination.TotalPages)
	mockRepo.AssertExpectations(t)
}

func TestDelete_Success(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	deleted := &domain.Link{ID: "abc"}
	mockRepo.On("Delete", ctx, "abc").Return(deleted, nil).Once()

	err := service.Delete(ctx, "abc")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	service, mockRepo, _ := newTestService()
	ctx := context.Background()

	mockRepo.On("Delete", ctx, "missing").Return(nil, pgx.ErrNoRows).Once()

	err := service.Delete(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	mockRepo.AssertExpectations(t)
}

func TestExportAll_EmptyTable(t *testing.T) {
	service, mockRepo, mockStorage := newTestService()
	ctx := context.Background()

	mockRepo.On("StreamAll", mock.Anything, mock.Anything).Return(nil).Once()
	mockStorage.On("GenerateUniqueFileName", "links.csv").Return("links-123.csv").Once()

	var uploadedCSV []byte
	mockStorage.On("UploadFile", mock.Anything, mock.MatchedBy(func(input storage.UploadFileInput) bool {
		return input.Folder == "downloads" &&
			input.FileName == "links-123.csv" &&
			input.ContentType == "text/csv"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(storage.UploadFileInput)
		data, err := io.ReadAll(input.Body)
		require.NoError(t, err)
		uploadedCSV = data
	}).Return(&storage.UploadedFile{
		URL: "https://cdn.example.com/downloads/links-123.csv",
		Key: "downloads/links-123.csv",
	}, nil).Once()

	url, err := service.ExportAll(ctx)

	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/downloads/links-123.csv", url)
	assert.Equal(t, "ID,Original URL,Short URL,Visits,Created At,Updated At\n", string(uploadedCSV))
	mockRepo.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}

func TestExportAll_StreamsRows(t *testing.T) {
	service, mockRepo, mockStorage := newTestService()
	ctx := context.Background()

	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)

	rows := []domain.Link{
		{
			ID:          "id-1",
			OriginalURL: "https://example.com/a",
			ShortURL:    "AAAAAA",
			Visits:      3,
			CreatedAt:   createdAt,
			UpdatedAt:   &updatedAt,
		},
		{
			ID:          "id-2",
			OriginalURL: "https://example.com/b",
			ShortURL:    "BBBBBB",
			Visits:      0,
			CreatedAt:   createdAt,
		},
	}

	mockRepo.On("StreamAll", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(*domain.Link) error)
			for i := range rows {
				require.NoError(t, fn(&rows[i]))
			}
		}).Return(nil).Once()

	mockStorage.On("GenerateUniqueFileName", "links.csv").Return("links-123.csv").Once()

	var uploadedCSV []byte
	mockStorage.On("UploadFile", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			input := args.Get(1).(storage.UploadFileInput)
			data, err := io.ReadAll(input.Body)
			require.NoError(t, err)
			uploadedCSV = data
		}).Return(&storage.UploadedFile{
		URL: "https://cdn.example.com/downloads/links-123.csv",
		Key: "downloads/links-123.csv",
	}, nil).Once()

	_, err := service.ExportAll(ctx)
	require.NoError(t, err)

	expected := "ID,Original URL,Short URL,Visits,Created At,Updated At\n" +
		"id-1,https://example.com/a,AAAAAA,3,2025-03-01T12:00:00Z,2025-03-02T08:30:00Z\n" +
		"id-2,https://example.com/b,BBBBBB,0,2025-03-01T12:00:00Z,\n"
	assert.Equal(t, expected, string(uploadedCSV))
}

func TestExportAll_UploadFailureCleansUp(t *testing.T) {
	service, mockRepo, mockStorage := newTestService()
	ctx := context.Background()

	mockRepo.On("StreamAll", mock.Anything, mock.Anything).Return(nil).Maybe()
	mockStorage.On("GenerateUniqueFileName", "links.csv").Return("links-123.csv").Once()

	mockStorage.On("UploadFile", mock.Anything, mock.Anything).
		Return(nil, errors.New("upload failed")).Once()
	mockStorage.On("DeleteFile", mock.Anything, "downloads/links-123.csv").
		Return(nil).Once()

	url, err := service.ExportAll(ctx)

	assert.Error(t, err)
	assert.Empty(t, url)
	mockStorage.AssertExpectations(t)
}

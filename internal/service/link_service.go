package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
	"github.com/gabrielmatsan/brev-ly/internal/storage"
	"github.com/gabrielmatsan/brev-ly/pkg/generator"
)

type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	FindByShortURL(ctx context.Context, shortURL string) (*domain.Link, error)
	List(ctx context.Context, page, limit int) ([]domain.Link, error)
	Count(ctx context.Context) (int64, error)
	ResolveAndIncrement(ctx context.Context, shortURL string) (*domain.Link, error)
	Delete(ctx context.Context, id string) (*domain.Link, error)
	StreamAll(ctx context.Context, fn func(*domain.Link) error) error
}

type ObjectStorage interface {
	UploadFile(ctx context.Context, input storage.UploadFileInput) (*storage.UploadedFile, error)
	DeleteFile(ctx context.Context, key string) error
	GenerateUniqueFileName(baseName string) string
}

type LinkService struct {
	linkRepo LinkRepository
	storage  ObjectStorage
}

func NewLinkService(linkRepo LinkRepository, storage ObjectStorage) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		storage:  storage,
	}
}

const maxCodeAttempts = 3

// Create persists a new link. A missing short code is generated; a taken
// one fails with ErrShortURLExists. The store's unique index is the final
// arbiter: the availability pre-check only provides an early exit, and a
// lost insert race on a generated code is retried with a fresh code.
// User-supplied codes are never retried.
func (s *LinkService) Create(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	shortURL := req.ShortURL
	generated := shortURL == ""

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if generated {
			code, err := generator.GenerateShortCode()
			if err != nil {
				return nil, fmt.Errorf("failed to generate short code: %w", err)
			}
			shortURL = code
		}

		_, err := s.linkRepo.FindByShortURL(ctx, shortURL)
		if err == nil {
			if generated {
				continue
			}
			return nil, domain.ErrShortURLExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to check short url availability: %w", err)
		}

		link := &domain.Link{
			ID:          generator.GenerateID(),
			OriginalURL: req.OriginalURL,
			ShortURL:    shortURL,
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if generated {
				continue
			}
			return nil, domain.ErrShortURLExists
		}

		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return nil, fmt.Errorf("failed to find a free short code after %d attempts", maxCodeAttempts)
}

// Resolve returns the original URL mapped to a short code and counts the
// call as a visit. Every successful call increments visits exactly once.
func (s *LinkService) Resolve(ctx context.Context, shortURL string) (string, error) {
	link, err := s.linkRepo.ResolveAndIncrement(ctx, shortURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve short url: %w", err)
	}

	return link.OriginalURL, nil
}

func (s *LinkService) List(ctx context.Context, page, limit int) (*domain.LinkPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var (
		links []domain.Link
		total int64
	)

	// Page fetch and total count have no ordering dependency, so they
	// run concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		links, err = s.linkRepo.List(gctx, page, limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.linkRepo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	if links == nil {
		links = []domain.Link{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &domain.LinkPage{
		Links: links,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *LinkService) Delete(ctx context.Context, id string) error {
	_, err := s.linkRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrLinkNotFound
		}
		return fmt.Errorf("failed to delete link: %w", err)
	}

	return nil
}

const exportFolder = "downloads"

var exportHeader = []string{"ID", "Original URL", "Short URL", "Visits", "Created At", "Updated At"}

// ExportAll streams every link through a CSV encoder into an object
// storage upload and returns the public URL of the report. The rows flow
// from the database cursor through an io.Pipe into the uploader, so
// memory stays bounded for any table size.
func (s *LinkService) ExportAll(ctx context.Context) (string, error) {
	pr, pw := io.Pipe()

	go func() {
		w := csv.NewWriter(pw)

		if err := w.Write(exportHeader); err != nil {
			pw.CloseWithError(err)
			return
		}

		err := s.linkRepo.StreamAll(ctx, func(link *domain.Link) error {
			return w.Write(csvRecord(link))
		})
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		w.Flush()
		pw.CloseWithError(w.Error())
	}()

	fileName := s.storage.GenerateUniqueFileName("links.csv")

	uploaded, err := s.storage.UploadFile(ctx, storage.UploadFileInput{
		Folder:      exportFolder,
		FileName:    fileName,
		ContentType: "text/csv",
		Body:        pr,
	})
	if err != nil {
		pr.CloseWithError(err)
		// A failed upload may leave a partial object behind. Cleanup is
		// best effort; the export already failed either way.
		_ = s.storage.DeleteFile(context.WithoutCancel(ctx), exportFolder+"/"+fileName)
		return "", fmt.Errorf("failed to export links: %w", err)
	}

	return uploaded.URL, nil
}

func csvRecord(link *domain.Link) []string {
	updatedAt := ""
	if link.UpdatedAt != nil {
		updatedAt = link.UpdatedAt.Format(time.RFC3339)
	}

	return []string{
		link.ID,
		link.OriginalURL,
		link.ShortURL,
		strconv.FormatInt(link.Visits, 10),
		link.CreatedAt.Format(time.RFC3339),
		updatedAt,
	}
}

// Seeds the links table with bulk data for load-testing listing and
// export. Not part of the server binary.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gabrielmatsan/brev-ly/internal/config"
	"github.com/gabrielmatsan/brev-ly/internal/migrations"
	"github.com/gabrielmatsan/brev-ly/pkg/generator"
)

const (
	totalLinks = 100000
	batchSize  = 5000
	numWorkers = 4
	maxVisits  = 10000
)

type dataGenerator struct {
	pool *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	if err := migrations.Up(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to migrate database: %v\n", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	gen := &dataGenerator{pool: pool}

	if err := gen.clearData(ctx); err != nil {
		log.Fatalf("Failed to clear data: %v\n", err)
	}

	if err := gen.insertLinks(ctx); err != nil {
		log.Fatalf("Failed to insert links: %v\n", err)
	}

	log.Printf("Seeded %d links\n", totalLinks)
}

func (g *dataGenerator) clearData(ctx context.Context) error {
	_, err := g.pool.Exec(ctx, `TRUNCATE links`)
	return err
}

func (g *dataGenerator) insertLinks(ctx context.Context) error {
	batches := make(chan int)

	go func() {
		for offset := 0; offset < totalLinks; offset += batchSize {
			batches <- offset
		}
		close(batches)
	}()

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for offset := range batches {
				if err := g.insertBatch(ctx, offset); err != nil {
					errs <- err
					return
				}
				log.Printf("inserted batch at offset %d\n", offset)
			}
		}()
	}

	wg.Wait()
	close(errs)

	return <-errs
}

func (g *dataGenerator) insertBatch(ctx context.Context, offset int) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO links (id, original_url, short_url, visits)
		VALUES ($1, $2, $3, $4)
	`

	for i := 0; i < batchSize && offset+i < totalLinks; i++ {
		code, err := generator.GenerateShortCode()
		if err != nil {
			return err
		}

		// Random codes collide eventually at this volume; suffix with the
		// row number to keep the unique index happy.
		shortURL := fmt.Sprintf("%s%d", code, offset+i)
		originalURL := fmt.Sprintf("https://example.com/articles/%d", offset+i)

		batch.Queue(query, generator.GenerateID(), originalURL, shortURL, rand.Intn(maxVisits))
	}

	return g.pool.SendBatch(ctx, batch).Close()
}

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/duka-api/internal/domain/catalog"
	"github.com/xenking/duka-api/internal/repository"
)

// setupTestDB starts a throwaway PostgreSQL container, applies the embedded
// schema and returns a ready pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := repository.NewPool(ctx, dsn)
	require.NoError(t, err, "create pool")
	require.NoError(t, pool.Ping(ctx), "ping database")
	require.NoError(t, repository.RunMigrations(ctx, pool), "run migrations")

	t.Cleanup(func() {
		pool.Close()
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	return pool
}

// seedModel creates the catalog tree down to one sellable model and stocks it.
func seedModel(t *testing.T, pool *pgxpool.Pool, price string, stock int) string {
	t.Helper()
	ctx := context.Background()

	catalogRepo := repository.NewCatalogRepository(pool)
	inventoryRepo := repository.NewInventoryRepository(pool)

	cat := &catalog.Category{ID: uuid.New().String(), Name: "Phones " + uuid.New().String()[:8]}
	require.NoError(t, catalogRepo.CreateCategory(ctx, cat))

	sub := &catalog.Subcategory{ID: uuid.New().String(), CategoryID: cat.ID, Name: "Smartphones"}
	require.NoError(t, catalogRepo.CreateSubcategory(ctx, sub))

	product := &catalog.Product{
		ID:            uuid.New().String(),
		SubcategoryID: sub.ID,
		Name:          "Test phone",
	}
	require.NoError(t, catalogRepo.CreateProduct(ctx, product))

	model := &catalog.Model{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Name:      "64GB",
		Price:     decimal.RequireFromString(price),
	}
	require.NoError(t, catalogRepo.CreateModel(ctx, model))
	require.NoError(t, inventoryRepo.Set(ctx, model.ID, stock))

	return model.ID
}

// stockOf reads the current inventory quantity for a model.
func stockOf(t *testing.T, pool *pgxpool.Pool, modelID string) int {
	t.Helper()
	inv, err := repository.NewInventoryRepository(pool).Get(context.Background(), modelID)
	require.NoError(t, err)
	return inv.Quantity
}

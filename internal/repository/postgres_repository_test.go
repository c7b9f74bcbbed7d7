package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lunoxdev/mai-store/internal/domain"
)

func setupTestDB(t *testing.T) (*Postgres, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewPostgres(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestProduct(name, handle string) *domain.Product {
	return &domain.Product{
		Name:        name,
		Handle:      handle,
		Description: "Postre artesanal",
		Price:       "1500",
		Units:       3,
		Images: []domain.ProductImage{
			{URL: "https://cdn.test/product-images/1_front.png", Alt: name, Path: "1_front.png"},
		},
		Available: true,
	}
}

func createProfile(t *testing.T, repo *Postgres, email string) uuid.UUID {
	id := uuid.New()
	require.NoError(t, repo.UpsertProfileEmail(context.Background(), id, email))
	return id
}

func TestInsertProduct_ThenGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := newTestProduct("Cheesecake de Fresa", "cheesecake-de-fresa")

	require.NoError(t, repo.InsertProduct(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)

	fetched, err := repo.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cheesecake de Fresa", fetched.Name)
	assert.Equal(t, "cheesecake-de-fresa", fetched.Handle)
	assert.Equal(t, 3, fetched.Units)
	require.Len(t, fetched.Images, 1)
	assert.Equal(t, "1_front.png", fetched.Images[0].Path)

	byHandle, err := repo.GetProductByHandle(ctx, "cheesecake-de-fresa")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byHandle.ID)
}

func TestInsertProduct_DuplicateHandle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Brownie", "brownie")))

	err := repo.InsertProduct(ctx, newTestProduct("Brownie Clone", "brownie"))
	assert.ErrorIs(t, err, ErrHandleTaken)
}

func TestGetProductByHandle_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetProductByHandle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSearchProducts_CaseInsensitiveSubstring(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Cheesecake de Fresa", "cheesecake-de-fresa")))
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Brownie", "brownie")))

	found, err := repo.SearchProducts(ctx, "CHEESE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cheesecake de Fresa", found[0].Name)
}

func TestRelatedProducts_ExcludesSelf(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Cheesecake", "cheesecake")))
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Brownie", "brownie")))
	require.NoError(t, repo.InsertProduct(ctx, newTestProduct("Galleta", "galleta")))

	related, err := repo.RelatedProducts(ctx, "cheesecake", 3)
	require.NoError(t, err)
	assert.Len(t, related, 2)
	for _, p := range related {
		assert.NotEqual(t, "cheesecake", p.Handle)
	}
}

func TestUpdateProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := newTestProduct("Brownie", "brownie")
	require.NoError(t, repo.InsertProduct(ctx, product))

	product.Name = "Brownie Doble"
	product.Handle = "brownie-doble"
	product.Units = 7
	require.NoError(t, repo.UpdateProduct(ctx, product))

	fetched, err := repo.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brownie Doble", fetched.Name)
	assert.Equal(t, 7, fetched.Units)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ghost := newTestProduct("Ghost", "ghost")
	ghost.ID = uuid.New()
	err := repo.UpdateProduct(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct_ReturnsImagePaths(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := newTestProduct("Cheesecake", "cheesecake")
	product.Images = append(product.Images, domain.ProductImage{URL: "https://cdn.test/2_side.png", Path: "2_side.png"})
	require.NoError(t, repo.InsertProduct(ctx, product))

	paths, err := repo.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1_front.png", "2_side.png"}, paths)

	_, err = repo.GetProductByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestHandleExists(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := newTestProduct("Brownie", "brownie")
	require.NoError(t, repo.InsertProduct(ctx, product))

	exists, err := repo.HandleExists(ctx, "brownie", uuid.New())
	require.NoError(t, err)
	assert.True(t, exists)

	// A product never collides with its own handle.
	exists, err = repo.HandleExists(ctx, "brownie", product.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateOrder_WritesOutboxEvent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createProfile(t, repo, "cliente@example.com")

	order := &domain.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("2500"),
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), Name: "Cheesecake", Price: "1500", Quantity: 1},
			{ProductID: uuid.New(), Name: "Brownie", Price: "500", Quantity: 2},
		},
	}
	require.NoError(t, repo.CreateOrder(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.False(t, order.OrderDate.IsZero())

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, "order.created", events[0].EventType)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))
	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSetDisplayID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createProfile(t, repo, "cliente@example.com")
	order := &domain.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("1500"),
		Items:       []domain.OrderItem{{ProductID: uuid.New(), Name: "Cheesecake", Price: "1500", Quantity: 1}},
	}
	require.NoError(t, repo.CreateOrder(ctx, order))

	displayID := "M&M-" + order.ID.String()[:8]
	require.NoError(t, repo.SetDisplayID(ctx, order.ID, displayID))

	orders, err := repo.ListOrdersByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, displayID, orders[0].DisplayID)
}

func TestSetDisplayID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetDisplayID(context.Background(), uuid.New(), "M&M-deadbeef")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUser_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createProfile(t, repo, "cliente@example.com")

	first := &domain.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("100"),
		Items:       []domain.OrderItem{{ProductID: uuid.New(), Name: "Brownie", Price: "100", Quantity: 1}},
	}
	require.NoError(t, repo.CreateOrder(ctx, first))

	// Small sleep to ensure different order_date timestamps
	time.Sleep(10 * time.Millisecond)

	second := &domain.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("200"),
		Items:       []domain.OrderItem{{ProductID: uuid.New(), Name: "Galleta", Price: "200", Quantity: 1}},
	}
	require.NoError(t, repo.CreateOrder(ctx, second))

	orders, err := repo.ListOrdersByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestListAllOrders_JoinsProfileEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createProfile(t, repo, "cliente@example.com")
	order := &domain.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("100"),
		Items:       []domain.OrderItem{{ProductID: uuid.New(), Name: "Brownie", Price: "100", Quantity: 1}},
	}
	require.NoError(t, repo.CreateOrder(ctx, order))

	orders, err := repo.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "cliente@example.com", orders[0].UserEmail)
}

func TestUpsertProfileEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, repo.UpsertProfileEmail(ctx, id, "primero@example.com"))
	profile, err := repo.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "primero@example.com", profile.Email)
	assert.Equal(t, domain.RoleCustomer, profile.Role)

	// A populated email is never overwritten on later sign-ins.
	require.NoError(t, repo.UpsertProfileEmail(ctx, id, "segundo@example.com"))
	profile, err = repo.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "primero@example.com", profile.Email)
}

func TestGetProfile_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

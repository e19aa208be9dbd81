// Command seed loads a default seller, sample products and sample orders. Running it
// again resets the seller password and skips rows that already exist.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	catalogpostgres "github.com/dejobratic/storefront/internal/catalog/adapters/postgres"
	catalogdomain "github.com/dejobratic/storefront/internal/catalog/domain"
	catalogports "github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	orderspostgres "github.com/dejobratic/storefront/internal/orders/adapters/postgres"
	ordersdomain "github.com/dejobratic/storefront/internal/orders/domain"
	ordersports "github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
)

const (
	sellerEmail    = "admin@luxeboutique.com"
	sellerPassword = "admin123"
	sellerName     = "Luxe Admin"
)

var standardSizes = []string{"XS", "S", "M", "L", "XL"}

type sampleProduct struct {
	name        string
	price       int64
	category    string
	description string
	image       string
	sizes       []string
	colors      []string
}

var sampleProducts = []sampleProduct{
	{"Silk Wrap Dress", 189, "Dresses", "Elegant silk wrap dress perfect for any occasion",
		"https://images.unsplash.com/photo-1595777707802-21b287d3e86d?w=400", standardSizes, []string{"Blush", "Navy", "Emerald"}},
	{"Cashmere Sweater", 249, "Knitwear", "Luxurious cashmere sweater for ultimate comfort",
		"https://images.unsplash.com/photo-1582033432646-f0b341c6113e?w=400", standardSizes, []string{"Cream", "Charcoal", "Camel"}},
	{"Tailored Blazer", 279, "Outerwear", "Perfectly tailored blazer for a polished look",
		"https://images.unsplash.com/photo-1591195853828-11db59a44f6b?w=400", standardSizes, []string{"Black", "Navy", "Burgundy"}},
	{"Leather Handbag", 349, "Accessories", "Premium leather handbag with elegant design",
		"https://images.unsplash.com/photo-1548036328-c9fa89d128fa?w=400", nil, []string{"Black", "Brown", "Cognac"}},
	{"Satin Blouse", 134, "Dresses", "Luxurious satin blouse for everyday elegance",
		"https://images.unsplash.com/photo-1584308666744-24d5c474f2ae?w=400", standardSizes, []string{"Ivory", "Blush", "Sage"}},
	{"Wide Leg Trousers", 179, "Outerwear", "Comfortable and stylish wide-leg trousers",
		"https://images.unsplash.com/photo-1594938298603-c8148c4dae35?w=400", standardSizes, []string{"Black", "Beige", "Navy"}},
	{"Evening Gown", 589, "Dresses", "Stunning evening gown for special occasions",
		"https://images.unsplash.com/photo-1564690721039-d0a5c4a5b9f5?w=400", standardSizes, []string{"Black", "Gold", "Burgundy"}},
	{"Pleated Midi Skirt", 159, "Dresses", "Elegant pleated midi skirt for a sophisticated look",
		"https://images.unsplash.com/photo-1606777261328-c800edd1e5a7?w=400", standardSizes, []string{"Gray", "Cream", "Black"}},
}

type sampleOrder struct {
	id       string
	customer string
	phone    string
	address  string
	total    string
	status   ordersdomain.OrderStatus
	courier  string
	tracking string
}

var sampleOrders = []sampleOrder{
	{"ORD-001", "Sarah Johnson", "+1 234-567-8900", "123 Main St, New York, NY 10001", "567.89", ordersdomain.StatusDelivered, "FedEx", "FX123456789"},
	{"ORD-002", "Emma Wilson", "+1 345-678-9012", "456 Oak Ave, Los Angeles, CA 90001", "289.50", ordersdomain.StatusShipped, "UPS", "UP987654321"},
	{"ORD-003", "Jessica Davis", "+1 456-789-0123", "789 Pine Rd, Chicago, IL 60601", "145.25", ordersdomain.StatusProcessing, "", ""},
	{"ORD-004", "Rachel Martinez", "+1 567-890-1234", "321 Elm St, Houston, TX 77001", "423.75", ordersdomain.StatusPending, "", ""},
}

func main() {
	logger := telemetry.NewLogger(os.Stdout, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, cfg, logger); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database seeding completed successfully")
}

func seed(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if _, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	sellerID, err := upsertSeller(ctx, pool)
	if err != nil {
		return err
	}
	logger.Info("default seller ready", "seller_id", sellerID, "email", sellerEmail)

	inserted, err := seedProducts(ctx, catalogpostgres.NewRepository(pool), sellerID)
	if err != nil {
		return err
	}
	logger.Info("sample products inserted", "count", inserted)

	inserted, err = seedOrders(ctx, orderspostgres.NewRepository(pool))
	if err != nil {
		return err
	}
	logger.Info("sample orders inserted", "count", inserted)
	return nil
}

func upsertSeller(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(sellerPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	query := `
		INSERT INTO sellers (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((LOWER(email))) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = NOW()
		RETURNING id
	`

	var id string
	if err := pool.QueryRow(ctx, query, uuid.NewString(), sellerEmail, string(hash), sellerName).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert seller: %w", err)
	}
	return id, nil
}

func seedProducts(ctx context.Context, repo catalogports.ProductRepository, sellerID string) (int, error) {
	existing, err := repo.List(ctx, catalogports.ListFilter{SellerID: sellerID, Page: 1, PageSize: 100})
	if err != nil {
		return 0, fmt.Errorf("list seller products: %w", err)
	}
	have := make(map[string]bool, len(existing.Products))
	for _, p := range existing.Products {
		have[p.Name] = true
	}

	inserted := 0
	for _, sample := range sampleProducts {
		if have[sample.name] {
			continue
		}

		now := time.Now().UTC()
		product := catalogdomain.Product{
			ID:          uuid.NewString(),
			SellerID:    sellerID,
			Name:        sample.name,
			Description: sample.description,
			Price:       decimal.NewFromInt(sample.price),
			Category:    sample.category,
			ImageURL:    sample.image,
			GalleryURLs: []string{},
			Sizes:       catalogdomain.NonNil(sample.sizes),
			Colors:      sample.colors,
			InStock:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, product); err != nil {
			return inserted, fmt.Errorf("create product %q: %w", sample.name, err)
		}
		inserted++
	}
	return inserted, nil
}

func seedOrders(ctx context.Context, repo ordersports.OrderRepository) (int, error) {
	inserted := 0
	for _, sample := range sampleOrders {
		now := time.Now().UTC()
		order := ordersdomain.Order{
			ID:              sample.id,
			CustomerName:    sample.customer,
			CustomerPhone:   sample.phone,
			DeliveryAddress: sample.address,
			TotalAmount:     decimal.RequireFromString(sample.total),
			Status:          sample.status,
			CourierCompany:  optional(sample.courier),
			CourierTracking: optional(sample.tracking),
			CreatedAt:       now,
			UpdatedAt:       now,
			Items:           []ordersdomain.OrderItem{},
		}

		err := repo.Create(ctx, order)
		switch {
		case errors.Is(err, ordersports.ErrDuplicateID):
			continue
		case err != nil:
			return inserted, fmt.Errorf("create order %s: %w", sample.id, err)
		}
		inserted++
	}
	return inserted, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

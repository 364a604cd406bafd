// Command seed-db loads the item catalog, demo coupons, and a default API key
// into the database. It is idempotent: rerunning upserts the same rows.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/storage/postgres"
)

type itemJSON struct {
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Category      string           `json:"category"`
	Label         string           `json:"label"`
}

func main() {
	var (
		databaseURL  string
		itemsFile    string
		apiKey       string
		apiKeyPepper string
		userID       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or STORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.StringVar(&userID, "user-id", "demo-user", "user the seeded API key authenticates as")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STORE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STORE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, apiKey, apiKeyPepper, userID); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile, apiKey, pepper, userID string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, pool, itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper, userID); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertItemSQL = `INSERT INTO items (id, slug, title, price, discount_price, category, label)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (slug) DO UPDATE SET
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		discount_price = EXCLUDED.discount_price,
		category = EXCLUDED.category,
		label = EXCLUDED.label`

func seedItems(ctx context.Context, pool *pgxpool.Pool, itemsFile string) error {
	slog.Info("reading items file", slog.String("path", itemsFile))

	data, err := os.ReadFile(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var items []itemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(items)))

	for _, it := range items {
		var label *string
		if it.Label != "" {
			label = &it.Label
		}
		if _, err := pool.Exec(ctx, upsertItemSQL,
			uuid.New().String(), it.Slug, it.Title, it.Price, it.DiscountPrice, it.Category, label,
		); err != nil {
			return errors.Wrapf(err, "upsert item %s", it.Slug)
		}

		slog.Info("upserted item", slog.String("slug", it.Slug), slog.String("title", it.Title))
	}

	return nil
}

const upsertCouponSQL = `INSERT INTO coupons (code, amount, active)
	VALUES ($1, $2, $3)
	ON CONFLICT (code) DO UPDATE SET
		amount = EXCLUDED.amount,
		active = EXCLUDED.active`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	coupons := []struct {
		code   string
		amount decimal.Decimal
	}{
		{code: "WELCOME5", amount: decimal.NewFromInt(5)},
		{code: "SUMMER15", amount: decimal.NewFromInt(15)},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL, c.code, c.amount, true); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("amount", c.amount.String()))
	}

	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, user_id, name, active)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (key_hash) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		name = EXCLUDED.name,
		active = EXCLUDED.active`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper, userID string) error {
	slog.Info("seeding default API key", slog.String("user_id", userID))

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, userID, "Default test key", true,
	); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}

package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Credentials holds everything needed to reach the coupons database.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// PostgresStore resolves coupon codes from the coupons table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cred *Credentials) (*PostgresStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		MigrationsTable: "coupons_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *PostgresStore) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.CouponRule, error) {
	query := `SELECT code, discount_type, value, max_discount, min_order_value, expires_at
	          FROM coupons WHERE code = $1`

	var (
		rule      domain.CouponRule
		dtype     string
		value     string
		maxDisc   string
		minOrder  string
		expiresAt sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&rule.Code, &dtype, &value, &maxDisc, &minOrder, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	rule.Type = domain.DiscountType(dtype)
	if rule.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("invalid value for coupon %s: %w", code, err)
	}
	if rule.MaxDiscount, err = decimal.NewFromString(maxDisc); err != nil {
		return nil, fmt.Errorf("invalid max_discount for coupon %s: %w", code, err)
	}
	if rule.MinOrderValue, err = decimal.NewFromString(minOrder); err != nil {
		return nil, fmt.Errorf("invalid min_order_value for coupon %s: %w", code, err)
	}
	if expiresAt.Valid {
		rule.ExpiresAt = expiresAt.Time
	}

	if err := validate(&rule, subtotal, time.Now()); err != nil {
		return nil, err
	}

	return &rule, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

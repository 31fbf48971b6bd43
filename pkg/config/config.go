package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName   string `envconfig:"MONGO_DB_NAME" default:"catalogdb"`
	KafkaBrokers  string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	CouponDBHost        string `envconfig:"COUPON_DB_HOST" default:"localhost"`
	CouponDBPort        int    `envconfig:"COUPON_DB_PORT" default:"5432"`
	CouponDBUser        string `envconfig:"COUPON_DB_USER" default:"postgres"`
	CouponDBPassword    string `envconfig:"COUPON_DB_PASSWORD" default:"postgres"`
	CouponDBName        string `envconfig:"COUPON_DB_NAME" default:"coupons"`
	CouponMigrationsDir string `envconfig:"COUPON_MIGRATIONS_DIR" default:"internal/coupon/migrations"`

	TaxRate               float64 `envconfig:"TAX_RATE" default:"0.05"`
	FreeShippingThreshold float64 `envconfig:"FREE_SHIPPING_THRESHOLD" default:"500"`
	FlatShippingRate      float64 `envconfig:"FLAT_SHIPPING_RATE" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type PayPalConfig struct {
	ClientID string
	Secret   string
	Mode     string // "live" or "sandbox"
}

type SellhubConfig struct {
	APIKey      string
	AuthPrefix  string
	StoreURL    string
	ProductID   string
	VariantID   string
	VariantName string
	ProductName string
	Price       string
	Currency    string
	ReturnURL   string
	MethodName  string
}

type Config struct {
	HTTPAddr     string
	RedisAddr    string
	AMQPURL      string
	AMQPExchange string

	AdminPassword string
	AdminEmail    string

	ResendAPIKey string
	MailFrom     string

	PayPal  PayPalConfig
	Sellhub SellhubConfig

	SuccessURL         string
	CancelURL          string
	DefaultProductSlug string
	Currency           string

	MaintenanceMode bool
	LogLevel        string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getenv("AMQP_EXCHANGE", "order.exchange"),

		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    getenv("ADMIN_EMAIL", "softcrate.team@gmail.com"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     getenv("MAIL_FROM", "Softcrate <noreply@softcrate.de>"),

		PayPal: PayPalConfig{
			ClientID: os.Getenv("PAYPAL_CLIENT_ID"),
			Secret:   os.Getenv("PAYPAL_SECRET"),
			Mode:     getenv("PAYPAL_MODE", "live"),
		},

		Sellhub: SellhubConfig{
			APIKey:      os.Getenv("SELLHUB_API_KEY"),
			AuthPrefix:  os.Getenv("SELLHUB_AUTH_PREFIX"),
			StoreURL:    getenv("SELLHUB_STORE_URL", "https://store.sellhub.cx"),
			ProductID:   os.Getenv("SELLHUB_PRODUCT_ID"),
			VariantID:   os.Getenv("SELLHUB_VARIANT_ID"),
			VariantName: getenv("SELLHUB_VARIANT_NAME", "Default Variant"),
			ProductName: os.Getenv("SELLHUB_PRODUCT_NAME"),
			Price:       os.Getenv("SELLHUB_PRICE"),
			Currency:    strings.ToLower(getenv("SELLHUB_CURRENCY", "eur")),
			ReturnURL:   os.Getenv("SELLHUB_RETURN_URL"),
			MethodName:  os.Getenv("SELLHUB_METHOD_NAME"),
		},

		SuccessURL:         getenv("SUCCESS_URL", "https://softcrate.de/danke.html"),
		CancelURL:          getenv("CANCEL_URL", "https://softcrate.de/fehler.html"),
		DefaultProductSlug: getenv("DEFAULT_PRODUCT_SLUG", "windows-11-pro"),
		Currency:           getenv("PRODUCT_CURRENCY", "EUR"),

		MaintenanceMode: getenv("MAINTENANCE_MODE", "false") == "true",
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config armazena todas as configurações do GoCart.
// Os campos cobrem os dois serviços remotos (catálogo e carrinho), o cache e a API local.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Serviços remotos
	CatalogBaseURL string
	CartBaseURL    string
	HTTPTimeout    time.Duration

	// Identidade fixa do chamador (enviada no header X-User-Id)
	CallerID string

	// Cache do catálogo (Redis). Vazio desativa o cache.
	RedisAddr string
	CacheTTL  time.Duration

	// Token do chamador (JWT). Vazio desativa o header Authorization.
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting da API local
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// DefaultCallerID é a identidade usada quando CALLER_ID não é definida.
const DefaultCallerID = "00000000-0000-0000-0000-000000000001"

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Serviços remotos
		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "http://localhost:5052/api/v1"),
		CartBaseURL:    getEnv("CART_BASE_URL", "http://localhost:5265/api/v1"),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT_SEC", 10) * time.Second,

		// 3. Identidade
		CallerID: getUUIDEnv("CALLER_ID", DefaultCallerID),

		// 4. Cache (Redis)
		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getDurationEnv("CACHE_TTL_SEC", 300) * time.Second,

		// 5. Segurança (JWT)
		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 6. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getUUIDEnv lê uma variável que deve conter um UUID. Valores inválidos são fatais,
// pois todas as requisições ao serviço de carrinho dependem desta identidade.
func getUUIDEnv(key string, defaultValue string) string {
	value := getEnv(key, defaultValue)
	if _, err := uuid.Parse(value); err != nil {
		log.Fatalf("❌ Erro de Configuração: %s ('%s') não é um UUID válido: %v", key, value, err)
	}
	return value
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gocart/config"
	"gocart/internal/pkg/cache"
	"gocart/internal/pkg/logger"
	"gocart/internal/pkg/middleware"
	"gocart/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gocart/internal/api/cart"
	"gocart/internal/api/events"
	"gocart/internal/api/product"
	"gocart/internal/api/router"
	"gocart/internal/client/cartclient"
	"gocart/internal/client/catalogclient"
	"gocart/internal/state/cartstate"
	"gocart/internal/state/productstate"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	log.Println("⚡ Inicializando GoCart...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	if zl, ok := appLog.(*logger.ZapLogger); ok {
		defer zl.Sync()
	}
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "caller_id": cfg.CallerID})

	// 2. Cache (Redis opcional)
	// Sem Redis o catálogo vai sempre ao serviço e o rate limiter usa memória local.
	var catalogCache cache.Client
	var limiterCache cache.Client = cache.NewMemoryClient()
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			appLog.Warn("Redis indisponível; seguindo sem cache do catálogo.", map[string]interface{}{"error": err.Error()})
		} else {
			defer redisClient.Close()
			catalogCache = redisClient
			limiterCache = redisClient
			appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
		}
	}

	// 3. Token do chamador (JWT opcional)
	var bearer string
	if cfg.JWTSecretKey != "" {
		tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
		t, err := tokenSvc.GenerateToken(cfg.CallerID)
		if err != nil {
			appLog.Fatal("Falha ao gerar token do chamador.", err)
		}
		bearer = t
		appLog.Debug("Token do chamador gerado.", nil)
	}

	// 4. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Client -> State -> Handler. Cada client é construído uma única vez.
	catalog := catalogclient.NewClient(catalogclient.Config{
		BaseURL:  cfg.CatalogBaseURL,
		Timeout:  cfg.HTTPTimeout,
		Cache:    catalogCache,
		CacheTTL: cfg.CacheTTL,
	}, appLog)

	cartClient := cartclient.NewClient(cartclient.Config{
		BaseURL:     cfg.CartBaseURL,
		CallerID:    cfg.CallerID,
		BearerToken: bearer,
		Timeout:     cfg.HTTPTimeout,
	}, appLog)
	appLog.Debug("Clients remotos inicializados.", nil)

	listState := productstate.NewListState(catalog, appLog)
	detailState := productstate.NewDetailState(catalog, appLog)
	cartState := cartstate.New(cartClient, appLog)

	productHandler := product.NewHandler(listState, detailState, appLog)
	cartHandler := cart.NewHandler(cartState, appLog)
	eventsHandler := events.NewHandler(listState, detailState, cartState, appLog)

	// 5. Aquecimento: a listagem é carregada antes da primeira requisição da UI e,
	// com Redis, os detalhes de cada produto vão para o cache.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	listState.Load(warmCtx)
	items := listState.Items()
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	if err := catalog.Prefetch(warmCtx, ids); err != nil {
		appLog.Warn("Aquecimento do cache interrompido.", map[string]interface{}{"error": err.Error()})
	}
	cancelWarm()
	appLog.Info("Catálogo aquecido.", map[string]interface{}{"products": len(items)})

	// 6. Roteador/Servidor
	r := router.NewRouter(productHandler, cartHandler, eventsHandler,
		middleware.Logging(appLog),
		middleware.RateLimiter(limiterCache, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod, appLog),
	)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// Sem WriteTimeout: /v1/events mantém a conexão aberta.
		IdleTimeout: 60 * time.Second,
	}

	// 7. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoCart ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

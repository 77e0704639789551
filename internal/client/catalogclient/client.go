package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gocart/internal/domain"
	"gocart/internal/pkg/cache"
	"gocart/internal/pkg/httpclient"
	"gocart/internal/pkg/logger"
)

// Chaves de cache do catálogo.
const (
	productListCacheKey = "catalog:products"
	productCacheKey     = "catalog:product:%s"
)

// prefetchWorkers limita as buscas simultâneas de Prefetch.
const prefetchWorkers = 4

// Config agrupa o que o Client precisa para falar com o serviço de catálogo.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // opcional

	Cache    cache.Client // opcional; nil desativa o cache-aside
	CacheTTL time.Duration
}

// Client lê o catálogo. Falhas de transporte são absorvidas: a listagem vira vazia e o
// produto vira ausente, para que a tela de produtos nunca fique bloqueada.
// Só o cancelamento do contexto do próprio chamador é devolvido como erro.
type Client struct {
	http     *httpclient.Client
	cache    cache.Client
	cacheTTL time.Duration
	logger   logger.Logger
	group    singleflight.Group
}

// NewClient cria o client do catálogo.
func NewClient(cfg Config, log logger.Logger) *Client {
	opts := []httpclient.Option{}
	if cfg.HTTPClient != nil {
		opts = append(opts, httpclient.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}

	return &Client{
		http:     httpclient.New(cfg.BaseURL, opts...),
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		logger:   log.With(map[string]interface{}{"component": "catalog_client"}),
	}
}

// ListProducts devolve a listagem do catálogo (GET /Product).
// Em caso de falha devolve uma listagem vazia e nenhum erro.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	v, err := c.do(ctx, productListCacheKey, func(fctx context.Context) (interface{}, error) {
		var products []domain.Product
		if c.readCache(fctx, productListCacheKey, &products) {
			return products, nil
		}

		if err := c.http.Get(fctx, "/Product", &products); err != nil {
			return nil, err
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.writeCache(fctx, productListCacheKey, products)
		return products, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("Falha ao buscar produtos.", err)
		return []domain.Product{}, nil
	}

	// Cópia para que chamadores concorrentes não compartilhem o mesmo slice.
	shared := v.([]domain.Product)
	products := make([]domain.Product, len(shared))
	copy(products, shared)
	return products, nil
}

// GetProduct devolve um produto (GET /Product/{id}) ou nil se não existir ou se a busca falhar.
// Um corpo "null" também significa produto inexistente.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	key := fmt.Sprintf(productCacheKey, id)

	v, err := c.do(ctx, key, func(fctx context.Context) (interface{}, error) {
		var product *domain.Product
		if c.readCache(fctx, key, &product) && product != nil {
			return product, nil
		}

		if err := c.http.Get(fctx, "/Product/"+httpclient.PathEscape(id), &product); err != nil {
			return nil, err
		}
		if product == nil {
			return (*domain.Product)(nil), nil
		}
		c.writeCache(fctx, key, product)
		return product, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error(fmt.Sprintf("Falha ao buscar produto com id %s.", id), err)
		return nil, nil
	}

	shared := v.(*domain.Product)
	if shared == nil {
		c.logger.Debug("Produto inexistente.", map[string]interface{}{"product_id": id})
		return nil, nil
	}
	product := *shared
	return &product, nil
}

// Prefetch carrega os produtos ids no cache, com no máximo prefetchWorkers buscas
// simultâneas. Sem cache não faz nada. Só o cancelamento de ctx é devolvido.
func (c *Client) Prefetch(ctx context.Context, ids []string) error {
	if c.cache == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchWorkers)
	for _, id := range ids {
		g.Go(func() error {
			_, err := c.GetProduct(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// do junta leituras simultâneas da mesma chave numa única requisição. A requisição
// roda sem o cancelamento de quem a iniciou; cada chamador desiste apenas pelo próprio ctx.
func (c *Client) do(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return fn(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// readCache tenta o cache (Cache-Aside READ). Erros de cache nunca interrompem a leitura.
func (c *Client) readCache(ctx context.Context, key string, out interface{}) bool {
	if c.cache == nil {
		return false
	}

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn("Falha ao ler do cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), out); err != nil {
		c.logger.Warn("Entrada de cache inválida; buscando no serviço.", map[string]interface{}{"key": key})
		return false
	}

	c.logger.Debug("Cache HIT.", map[string]interface{}{"key": key})
	return true
}

// writeCache popula o cache (Cache-Aside WRITE) após uma leitura bem-sucedida.
func (c *Client) writeCache(ctx context.Context, key string, value interface{}) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Falha ao serializar para o cache.", map[string]interface{}{"key": key})
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("Falha ao gravar no cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

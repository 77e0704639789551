// Package httpclient é o transporte JSON compartilhado pelos clients de catálogo e carrinho.
// Não guarda estado mutável: pode ser usado por vários componentes sem sincronização.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperror "gocart/internal/errors"
)

// maxErrorBody limita quanto do corpo de uma resposta de erro entra na mensagem.
const maxErrorBody = 512

// Client executa uma única requisição por chamada, sem retries.
type Client struct {
	baseURL string
	http    *http.Client
	headers http.Header
}

// Option customiza o Client na construção.
type Option func(*Client)

// WithHTTPClient troca o *http.Client (ex.: o de um httptest.Server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader adiciona um header fixo a todas as requisições.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithTimeout define o timeout do transporte.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New cria um Client para baseURL. Uma barra final em baseURL é ignorada.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL devolve a URL base normalizada.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get executa um GET e decodifica o corpo em out (se não for nil).
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post executa um POST com corpo JSON.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put executa um PUT com corpo JSON.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete executa um DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do monta a requisição, envia e traduz a resposta.
//   - falha de rede: InternalError (transporte)
//   - status não-2xx: apperror.FromStatus
//   - corpo inválido: InternalError
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.NewInternalError(fmt.Sprintf("falha ao serializar corpo de %s", op), err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.NewInternalError(fmt.Sprintf("falha ao montar %s", op), err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.NewTransportError(fmt.Sprintf("falha em %s", op), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.NewTransportError(fmt.Sprintf("falha ao ler resposta de %s", op), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apperror.FromStatus(resp.StatusCode, fmt.Sprintf("%s: %s", op, msg))
	}

	if out == nil {
		return nil
	}
	if err := decode(data, out); err != nil {
		return apperror.NewInternalError(fmt.Sprintf("resposta inválida de %s", op), err)
	}
	return nil
}

// decode aceita JSON e, para destinos *string, também um corpo em texto puro
// (o serviço de carrinho devolve ids e tokens como string JSON ou texto).
func decode(data []byte, out interface{}) error {
	if s, ok := out.(*string); ok {
		if err := json.Unmarshal(data, s); err == nil {
			return nil
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return fmt.Errorf("corpo vazio")
		}
		*s = text
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("corpo vazio")
	}
	return json.Unmarshal(data, out)
}

// PathEscape escapa um segmento de caminho (ids opacos vindos do chamador).
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}

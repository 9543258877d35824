package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с CatalogService (справочники филиалов,
// боксов и услуг)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CatalogService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetBranch получает филиал со списком боксов
func (c *Client) GetBranch(ctx context.Context, branchID int64) (*Branch, error) {
	var branch Branch
	url := fmt.Sprintf("%s/internal/branches/%d", c.baseURL, branchID)
	if err := c.getJSON(ctx, url, &branch, ErrBranchNotFound); err != nil {
		return nil, err
	}
	return &branch, nil
}

// GetBay получает бокс с его рабочими часами
func (c *Client) GetBay(ctx context.Context, bayID int64) (*Bay, error) {
	var bay Bay
	url := fmt.Sprintf("%s/internal/bays/%d", c.baseURL, bayID)
	if err := c.getJSON(ctx, url, &bay, ErrBayNotFound); err != nil {
		return nil, err
	}
	return &bay, nil
}

// GetService получает услугу
func (c *Client) GetService(ctx context.Context, serviceID int64) (*Service, error) {
	var service Service
	url := fmt.Sprintf("%s/internal/services/%d", c.baseURL, serviceID)
	if err := c.getJSON(ctx, url, &service, ErrServiceNotFound); err != nil {
		return nil, err
	}
	return &service, nil
}

// getJSON выполняет GET запрос и декодирует ответ
// notFoundErr возвращается на 404
func (c *Client) getJSON(ctx context.Context, url string, out interface{}, notFoundErr error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFoundErr
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}

package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// HTTPFetcher pulls quotes from an external HTTP price endpoint. The price is
// plucked from the response document by a gjson path, so the upstream payload
// shape does not need to match ours.
type HTTPFetcher struct {
	client    *http.Client
	endpoint  *url.URL
	apiKey    string
	pricePath string
	log       *logger.Logger
}

// NewHTTPFetcher constructs a fetcher for the given endpoint. pricePath
// defaults to "price".
func NewHTTPFetcher(client *http.Client, endpoint, apiKey, pricePath string, log *logger.Logger) (*HTTPFetcher, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("fetch endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse fetch endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	pricePath = strings.TrimSpace(pricePath)
	if pricePath == "" {
		pricePath = "price"
	}
	if log == nil {
		log = logger.NewDefault("oracle-http-fetcher")
	}
	return &HTTPFetcher{
		client:    client,
		endpoint:  parsed,
		apiKey:    strings.TrimSpace(apiKey),
		pricePath: pricePath,
		log:       log,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, code asset.Code) (asset.Quote, error) {
	requestURL := *f.endpoint
	q := requestURL.Query()
	q.Set("asset", string(code))
	requestURL.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return asset.Quote{}, fmt.Errorf("build fetch request: %w", err)
	}
	if f.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return asset.Quote{}, fmt.Errorf("fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return asset.Quote{}, fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return asset.Quote{}, fmt.Errorf("read fetch response: %w", err)
	}

	price := gjson.GetBytes(body, f.pricePath)
	if !price.Exists() || price.Float() <= 0 {
		return asset.Quote{}, fmt.Errorf("no usable price at %q in response", f.pricePath)
	}

	return asset.Quote{
		Asset:      code,
		Price:      price.Float(),
		Currency:   "INR",
		Source:     asset.SourceLive,
		ObservedAt: time.Now().UTC(),
		Volatility: VolatilityOf(code),
		Confidence: tableFetchConfidence,
	}, nil
}

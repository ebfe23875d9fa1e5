package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// Fetcher retrieves a live quote for an asset.
type Fetcher interface {
	Fetch(ctx context.Context, code asset.Code) (asset.Quote, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, code asset.Code) (asset.Quote, error)

func (f FetcherFunc) Fetch(ctx context.Context, code asset.Code) (asset.Quote, error) {
	if f == nil {
		return asset.Quote{}, apierror.Newf(apierror.CodePriceFetchFailed, 502, "no fetcher configured")
	}
	return f(ctx, code)
}

// Static INR-denominated base prices for the supported assets.
var basePrices = map[asset.Code]float64{
	asset.BGT:  5650.00,
	asset.BST:  72.50,
	asset.BPT:  3200.00,
	asset.BINR: 1.00,
	asset.RWA:  100.00,
}

// Static volatility classification. Feeds the slippage buffer downstream; it
// is not derived from price history.
var volatilities = map[asset.Code]asset.Volatility{
	asset.BGT:  asset.VolatilityLow,
	asset.BST:  asset.VolatilityMedium,
	asset.BPT:  asset.VolatilityHigh,
	asset.BINR: asset.VolatilityMinimal,
	asset.RWA:  asset.VolatilityMedium,
}

// BasePrice returns the static reference price for an asset.
func BasePrice(code asset.Code) (float64, bool) {
	price, ok := basePrices[code]
	return price, ok
}

// VolatilityOf returns the static classification for an asset, defaulting to
// unknown for codes outside the table.
func VolatilityOf(code asset.Code) asset.Volatility {
	if v, ok := volatilities[code]; ok {
		return v
	}
	return asset.VolatilityUnknown
}

// TableFetcher simulates a live price source: the static base price with a
// symmetric random perturbation in [-0.1%, +0.1%].
type TableFetcher struct {
	mu  sync.Mutex
	rnd *rand.Rand
	log *logger.Logger
}

const (
	tableFetchConfidence = 0.95
	maxPerturbation      = 0.001
)

// NewTableFetcher constructs the simulated source. A nil rnd gets a
// time-seeded generator.
func NewTableFetcher(rnd *rand.Rand, log *logger.Logger) *TableFetcher {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.NewDefault("oracle-fetcher")
	}
	return &TableFetcher{rnd: rnd, log: log}
}

func (f *TableFetcher) Fetch(_ context.Context, code asset.Code) (asset.Quote, error) {
	base, ok := basePrices[code]
	if !ok {
		return asset.Quote{}, apierror.InvalidAsset(string(code))
	}

	f.mu.Lock()
	perturbation := (f.rnd.Float64()*2 - 1) * maxPerturbation
	f.mu.Unlock()

	return asset.Quote{
		Asset:      code,
		Price:      base * (1 + perturbation),
		Currency:   "INR",
		Source:     asset.SourceLive,
		ObservedAt: time.Now().UTC(),
		Volatility: VolatilityOf(code),
		Confidence: tableFetchConfidence,
	}, nil
}

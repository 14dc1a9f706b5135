package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/config"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/observability"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Pricing    services.PricingEngine
	Catalog    services.CatalogService
	Promotions services.PromotionService
	Vouchers   services.VoucherService
	Carts      services.CartService
	Checkout   services.CheckoutService
	Orders     services.OrderService
	Analytics  services.AnalyticsService
	Counters   services.CounterService
	System     services.SystemService
}

// Deps carries the infrastructure the container wires into services. Registry is
// required; the remaining fields degrade gracefully when absent.
type Deps struct {
	Registry repositories.Registry
	Logger   *zap.Logger
	Receipts services.ReceiptPublisher
	Metrics  *observability.CheckoutMetrics
	Build    services.BuildInfo
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, deps Deps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: deps.Registry,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, cfg config.Config, deps Deps) (Services, error) {
	var svc Services
	reg := deps.Registry

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pricing, err := services.NewPricingEngine(services.PricingEngineDeps{
		Promotions: reg.Promotions(),
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("pricing")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing engine: %w", err)
	}
	svc.Pricing = pricing

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        reg.Products(),
		Pricing:         pricing,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		Clock:           time.Now,
		Logger:          serviceLogger(logger.Named("catalog")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	promotionSvc, err := services.NewPromotionService(services.PromotionServiceDeps{
		Repository: reg.Promotions(),
		Products:   reg.Products(),
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("promotions")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build promotion service: %w", err)
	}
	svc.Promotions = promotionSvc

	voucherSvc, err := services.NewVoucherService(services.VoucherServiceDeps{
		Repository: reg.Vouchers(),
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("vouchers")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build voucher service: %w", err)
	}
	svc.Vouchers = voucherSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:    reg.Carts(),
		Products: reg.Products(),
		Vouchers: reg.Vouchers(),
		Pricing:  pricing,
		Clock:    time.Now,
		Logger:   serviceLogger(logger.Named("cart")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Carts = cartSvc

	counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: reg.Counters(),
		Clock:      time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build counter service: %w", err)
	}
	svc.Counters = counterSvc

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:       reg.Carts(),
		Settlements: reg,
		Counters:    counterSvc,
		Receipts:    deps.Receipts,
		Metrics:     deps.Metrics,
		Clock:       time.Now,
		Logger:      serviceLogger(logger.Named("checkout")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: reg.Orders(),
		Logger:     serviceLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	if cfg.Features.EnableAnalytics {
		analyticsSvc, err := services.NewAnalyticsService(services.AnalyticsServiceDeps{
			Orders: reg.Orders(),
			Clock:  time.Now,
			Logger: serviceLogger(logger.Named("analytics")),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build analytics service: %w", err)
		}
		svc.Analytics = analyticsSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            deps.Build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

func serviceLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service event", zFields...)
	}
}

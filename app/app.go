package app

import (
	"context"
	"strings"
	"sync"

	"github.com/olprint/storefront/cart"
	"github.com/olprint/storefront/catalog"
	"github.com/olprint/storefront/chat"
	"github.com/olprint/storefront/core"
	"github.com/olprint/storefront/orders"
	"github.com/olprint/storefront/prefs"
)

// View identifies a storefront surface
type View string

const (
	ViewHome         View = "home"
	ViewProducts     View = "products"
	ViewPromotions   View = "promotions"
	ViewAbout        View = "about"
	ViewDesignStudio View = "design-studio"
	ViewProfile      View = "profile"
	ViewSupport      View = "support"
	ViewAdmin        View = "admin"
)

var customerViews = map[View]bool{
	ViewHome:         true,
	ViewProducts:     true,
	ViewPromotions:   true,
	ViewAbout:        true,
	ViewDesignStudio: true,
	ViewProfile:      true,
	ViewSupport:      true,
}

// MediaGenerator is the slice of the hosted API the design studio uses
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)
	GenerateVideo(ctx context.Context, prompt string, image []byte, imageMime string) (string, error)
	PollOperation(ctx context.Context, operationName string) (string, error)
}

// App is the top-level owner of storefront state: catalog, cart, orders,
// notifications, preferences, and the chat session. The chat session is
// rebuilt whenever the catalog changes so the assistant always sees the
// live inventory.
type App struct {
	cfg       *core.Config
	logger    core.Logger
	telemetry core.Telemetry

	Catalog       *catalog.Catalog
	Cart          *cart.Cart
	Orders        *orders.Store
	Notifications *orders.Center
	Theme         *prefs.ThemeStore

	streamer  core.AIStreamer
	media     MediaGenerator
	simulator *orders.Simulator

	mu        sync.Mutex
	session   *chat.Session
	view      View
	adminMode bool
	location  *core.GeoPoint
}

// Option configures optional app collaborators
type Option func(*App)

// WithTelemetry attaches a tracing provider
func WithTelemetry(t core.Telemetry) Option {
	return func(a *App) {
		if t != nil {
			a.telemetry = t
		}
	}
}

// WithMediaGenerator enables the design studio operations
func WithMediaGenerator(m MediaGenerator) Option {
	return func(a *App) { a.media = m }
}

// componentLogger tags a child logger when the logger supports it
func componentLogger(logger core.Logger, component string) core.Logger {
	if cl, ok := logger.(core.ComponentAwareLogger); ok {
		return cl.WithComponent(component)
	}
	return logger
}

// New assembles the storefront with seeded catalog and order history.
// memory backs the theme preference; pass a core.MemoryStore for an
// ephemeral run or a Redis-backed store for durability.
func New(cfg *core.Config, streamer core.AIStreamer, memory core.Memory, logger core.Logger, opts ...Option) *App {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		telemetry: &core.NoOpTelemetry{},
		streamer:  streamer,
		view:      ViewHome,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Catalog = catalog.New(componentLogger(logger, "catalog"), catalog.SeedProducts()...)
	a.Cart = cart.New(a.Catalog.Get, logger)
	a.Orders = orders.NewStore(logger, orders.SeedOrders()...)
	a.Notifications = orders.NewCenter(cfg.Simulation.ToastAutoDismiss, logger)
	a.Theme = prefs.NewThemeStore(memory, logger)
	a.simulator = orders.NewSimulator(a.Orders, a.Notifications, cfg.Simulation, logger)

	a.rebuildSession()
	a.Catalog.Subscribe(a.rebuildSession)

	return a
}

// Start arms the scripted order-status simulation
func (a *App) Start() error {
	return a.simulator.Start()
}

// Close releases timers held by the app
func (a *App) Close() {
	a.simulator.Close()
	a.Notifications.Close()
}

// ChatSession returns the current conversation
func (a *App) ChatSession() *chat.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// SetLocation attaches customer coordinates to future chat requests,
// recreating the session. Denied geolocation simply never calls this and
// the chat stays ungrounded.
func (a *App) SetLocation(point *core.GeoPoint) {
	a.mu.Lock()
	a.location = point
	a.mu.Unlock()
	a.rebuildSession()
}

// rebuildSession recreates the chat session from the live catalog
func (a *App) rebuildSession() {
	registry := chat.NewRegistry(a.logger)
	chat.RegisterAddToCart(registry, a.Cart)
	instruction := chat.BuildSystemInstruction(a.Catalog.List())

	a.mu.Lock()
	location := a.location
	a.session = chat.NewSession(a.streamer, registry, instruction, a.logger,
		chat.WithLocation(location),
		chat.WithTelemetry(a.telemetry),
	)
	a.mu.Unlock()

	a.logger.Debug("Chat session rebuilt", map[string]interface{}{
		"operation": "chat_session_rebuild",
	})
}

// Navigate applies a URL fragment. "#admin" gates the admin surface; a
// known view name selects it; anything else leaves admin mode and falls
// back to the current customer view or home.
func (a *App) Navigate(fragment string) View {
	name := strings.TrimPrefix(strings.TrimSpace(fragment), "#")

	a.mu.Lock()
	defer a.mu.Unlock()

	if name == string(ViewAdmin) {
		a.adminMode = true
		a.view = ViewAdmin
		return a.view
	}

	a.adminMode = false
	if customerViews[View(name)] {
		a.view = View(name)
	} else if !customerViews[a.view] {
		a.view = ViewHome
	}
	return a.view
}

// CurrentView returns the active view
func (a *App) CurrentView() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// AdminMode reports whether the admin surface is active
func (a *App) AdminMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.adminMode
}

// Logout leaves the admin surface and returns to the storefront
func (a *App) Logout() View {
	return a.Navigate("")
}

// Admin surface: product CRUD delegates to the catalog, which notifies
// the chat session rebuild.

func (a *App) AddProduct(p catalog.Product) (catalog.Product, error) {
	return a.Catalog.Add(p)
}

func (a *App) UpdateProduct(p catalog.Product) error {
	return a.Catalog.Update(p)
}

func (a *App) DeleteProduct(id string) error {
	return a.Catalog.Delete(id)
}

// GenerateProductImage produces a marketing image through the design
// studio. Requires a media generator.
func (a *App) GenerateProductImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	if a.media == nil {
		return nil, core.ErrMissingConfiguration
	}
	return a.media.GenerateImage(ctx, prompt, aspectRatio)
}

// GenerateProductVideo starts a video job from a source image and waits
// for the result URI.
func (a *App) GenerateProductVideo(ctx context.Context, prompt string, image []byte, imageMime string) (string, error) {
	if a.media == nil {
		return "", core.ErrMissingConfiguration
	}
	operation, err := a.media.GenerateVideo(ctx, prompt, image, imageMime)
	if err != nil {
		return "", err
	}
	return a.media.PollOperation(ctx, operation)
}

package chat

import (
	"context"
	"fmt"

	"github.com/olprint/storefront/core"
)

// ToolHandler runs a capability with validated arguments and returns a
// short status string for the model.
type ToolHandler func(ctx context.Context, args map[string]interface{}) string

// Registry maps tool names to declarations and handlers. Arguments coming
// from the model are validated against the declared shape before the
// handler runs.
type Registry struct {
	tools  map[string]registeredTool
	order  []string
	logger core.Logger
}

type registeredTool struct {
	declaration core.FunctionDeclaration
	handler     ToolHandler
}

// NewRegistry creates an empty tool registry
func NewRegistry(logger core.Logger) *Registry {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Registry{
		tools:  make(map[string]registeredTool),
		logger: logger,
	}
}

// Register adds a tool. Re-registering a name replaces the previous entry.
func (r *Registry) Register(decl core.FunctionDeclaration, handler ToolHandler) {
	if _, exists := r.tools[decl.Name]; !exists {
		r.order = append(r.order, decl.Name)
	}
	r.tools[decl.Name] = registeredTool{declaration: decl, handler: handler}
}

// Declarations returns the registered declarations in registration order
func (r *Registry) Declarations() []core.FunctionDeclaration {
	out := make([]core.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].declaration)
	}
	return out
}

// Execute validates the call against its declaration and runs the handler.
// Handler outcomes are status strings, never errors; only an unknown tool
// or a malformed payload is an error.
func (r *Registry) Execute(ctx context.Context, call *core.FunctionCall) (string, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrUnknownTool, call.Name)
	}

	if err := validateArgs(tool.declaration, call.Args); err != nil {
		return "", err
	}

	r.logger.Info("Executing tool", map[string]interface{}{
		"operation": "tool_execute",
		"tool":      call.Name,
		"call_id":   call.ID,
	})
	return tool.handler(ctx, call.Args), nil
}

// validateArgs checks required arguments are present and every supplied
// argument matches its declared JSON type.
func validateArgs(decl core.FunctionDeclaration, args map[string]interface{}) error {
	for _, name := range decl.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("%w: missing required argument %q", core.ErrInvalidToolArgs, name)
		}
	}

	for name, value := range args {
		wantType, declared := decl.Parameters[name]
		if !declared {
			return fmt.Errorf("%w: unexpected argument %q", core.ErrInvalidToolArgs, name)
		}
		if !matchesType(value, wantType) {
			return fmt.Errorf("%w: argument %q is not a %s", core.ErrInvalidToolArgs, name, wantType)
		}
	}
	return nil
}

// matchesType checks a decoded JSON value against a declared type name.
// Numbers decode as float64 through encoding/json.
func matchesType(value interface{}, wantType string) bool {
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	}
	return false
}

// Cart abstracts the add-by-ID capability the chat assistant can use
type Cart interface {
	AddByID(productID string) bool
}

// Tool status strings sent back to the model
const (
	statusCartAdded    = "Produto adicionado ao carrinho com sucesso."
	statusCartNotFound = "Produto não encontrado na loja."
)

// AddToCartDeclaration is the shape of the assistant's cart capability
func AddToCartDeclaration() core.FunctionDeclaration {
	return core.FunctionDeclaration{
		Name:        "add_to_cart",
		Description: "Adiciona um produto ao carrinho de compras do cliente, dado o identificador do produto.",
		Parameters:  map[string]string{"productId": "string"},
		Required:    []string{"productId"},
	}
}

// RegisterAddToCart wires the cart capability into the registry. An unknown
// product is a failure status folded into the conversation, never an error.
func RegisterAddToCart(registry *Registry, cart Cart) {
	registry.Register(AddToCartDeclaration(), func(ctx context.Context, args map[string]interface{}) string {
		productID, _ := args["productId"].(string)
		if cart.AddByID(productID) {
			return statusCartAdded
		}
		return statusCartNotFound
	})
}

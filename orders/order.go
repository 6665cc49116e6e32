package orders

import "time"

// Status of an order, in the customer-facing label form
type Status string

const (
	StatusProcessing     Status = "Em Processamento"
	StatusShipped        Status = "Enviado"
	StatusOutForDelivery Status = "Em Distribuição"
	StatusDelivered      Status = "Entregue"
	StatusCancelled      Status = "Cancelado"
)

// Action is the follow-up a customer can take on an order
type Action string

const (
	ActionCancel  Action = "cancel"
	ActionTrack   Action = "track"
	ActionInvoice Action = "invoice"
	ActionNone    Action = "none"
)

// Order is one purchase record
type Order struct {
	ID     string
	Date   string
	Total  float64
	Status Status
	Items  []string
	Action Action
}

// canTransition defines the forward status progression. Cancellation is
// only possible while the order is still being processed.
func canTransition(from, to Status) bool {
	switch from {
	case StatusProcessing:
		return to == StatusShipped || to == StatusCancelled
	case StatusShipped:
		return to == StatusOutForDelivery
	case StatusOutForDelivery:
		return to == StatusDelivered
	}
	return false
}

// actionFor maps a status to the follow-up action it enables
func actionFor(status Status) Action {
	switch status {
	case StatusProcessing:
		return ActionCancel
	case StatusShipped, StatusOutForDelivery:
		return ActionTrack
	case StatusDelivered:
		return ActionInvoice
	}
	return ActionNone
}

// SeedOrders returns the customer's initial order history
func SeedOrders() []Order {
	return []Order{
		{
			ID:     "OL-1002-Z",
			Date:   "Hoje",
			Total:  139.50,
			Status: StatusProcessing,
			Items:  []string{"Brother HL-L2350DW", "Papel Navigator A4"},
			Action: ActionCancel,
		},
		{
			ID:     "OL-9942-Y",
			Date:   "05 Nov 2023",
			Total:  39.90,
			Status: StatusOutForDelivery,
			Items:  []string{"Pack Tinteiros HP 305XL"},
			Action: ActionTrack,
		},
		{
			ID:     "OL-8821-X",
			Date:   "12 Out 2023",
			Total:  249.99,
			Status: StatusDelivered,
			Items:  []string{"HP LaserJet Pro M404dn"},
			Action: ActionInvoice,
		},
		{
			ID:     "OL-7520-A",
			Date:   "20 Set 2023",
			Total:  15.50,
			Status: StatusDelivered,
			Items:  []string{"Papel Fotográfico Glossy"},
			Action: ActionInvoice,
		},
		{
			ID:     "OL-6201-B",
			Date:   "02 Ago 2023",
			Total:  89.00,
			Status: StatusDelivered,
			Items:  []string{"Canon PIXMA TS5350i"},
			Action: ActionInvoice,
		},
	}
}

// Notification severity levels
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
)

// Notification is one entry in the notification center
type Notification struct {
	ID        string
	Title     string
	Message   string
	Type      string
	Timestamp time.Time
	Read      bool
}

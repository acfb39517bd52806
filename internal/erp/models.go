package erp

import "time"

const (
	ItemTypeComponent = "component"
	ItemTypeModel     = "model"
)

// Order mirrors the backend's production order document. Field names on the
// wire are the backend's Spanish ones.
type Order struct {
	ID          string         `json:"_id"`
	NumeroOrden int            `json:"numeroOrden"`
	Cliente     string         `json:"cliente"`
	Productos   []OrderProduct `json:"productos"`
	FechaLimite time.Time      `json:"fechaLimite"`
	Estado      Status         `json:"estado"`
}

// OrderProduct is one line item: a standalone component, or a model built
// from a chosen subset of its components.
type OrderProduct struct {
	ItemID                   string   `json:"itemId"`
	ItemType                 string   `json:"itemType"`
	ItemName                 string   `json:"itemName"`
	Cantidad                 int      `json:"cantidad"`
	ComponentesSeleccionados []string `json:"componentesSeleccionados,omitempty"`
}

// Component carries the optional materials breakdown shown in the component
// detail view. The timer engine never reads Materiales.
type Component struct {
	ID         string     `json:"_id"`
	Nombre     string     `json:"nombre"`
	Materiales []Material `json:"materiales,omitempty"`
}

type Material struct {
	MaterialID string  `json:"materialId"`
	Nombre     string  `json:"nombre,omitempty"`
	Cantidad   float64 `json:"cantidad"`
	Unidad     string  `json:"unidad"`
}

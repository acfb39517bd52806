package redisx

import "time"

const (
	// Component catalog cache: the whole list as one JSON blob, refreshed on
	// expiry. Display enrichment only, never consulted by the timer engine.
	KeyComponentCatalog = "catalog:components"

	// Last estado pushed per order: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLComponentCatalog = 5 * time.Minute
	TTLStatusCache      = 5 * time.Minute
)

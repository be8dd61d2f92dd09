package redisx

import "time"

const (
	// Cached order status payload: order_status:{order_id} -> {"status":"...","tracking_number":"..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

package orders

import "time"

type TimelineStep struct {
	Status      string     `json:"status"`
	Date        *time.Time `json:"date"`
	Completed   bool       `json:"completed"`
	Description string     `json:"description"`
}

type TrackingInfo struct {
	OrderID           int64          `json:"order_id"`
	Status            Status         `json:"status"`
	TrackingNumber    string         `json:"tracking_number,omitempty"`
	EstimatedDelivery string         `json:"estimated_delivery,omitempty"`
	Timeline          []TimelineStep `json:"timeline"`
}

// reached reports whether the order has passed through a stage on the
// happy path. Cancelled orders report only what happened before.
func reached(s Status, stage Status) bool {
	rank := map[Status]int{
		StatusPending:    0,
		StatusConfirmed:  1,
		StatusProcessing: 2,
		StatusShipped:    3,
		StatusDelivered:  4,
	}
	cur, ok := rank[s]
	if !ok {
		return false
	}
	return cur >= rank[stage]
}

// BuildTracking derives the customer-facing timeline from the order status.
func BuildTracking(o Order) TrackingInfo {
	var tl []TimelineStep

	if o.Status == StatusCancelled {
		created := o.CreatedAt
		updated := o.UpdatedAt
		tl = append(tl,
			TimelineStep{Status: "Order Placed", Date: &created, Completed: true,
				Description: "Your order has been received"},
			TimelineStep{Status: "Cancelled", Date: &updated, Completed: true,
				Description: "Your order has been cancelled"},
		)
		return TrackingInfo{OrderID: o.ID, Status: o.Status, TrackingNumber: o.TrackingNumber, Timeline: tl}
	}

	created := o.CreatedAt
	updated := o.UpdatedAt

	if reached(o.Status, StatusPending) {
		tl = append(tl, TimelineStep{Status: "Order Placed", Date: &created, Completed: true,
			Description: "Your order has been received and is being processed"})
	}
	if reached(o.Status, StatusConfirmed) {
		tl = append(tl, TimelineStep{Status: "Payment Confirmed", Date: &created, Completed: true,
			Description: "Payment has been processed successfully"})
	}
	if reached(o.Status, StatusProcessing) {
		tl = append(tl, TimelineStep{Status: "Processing", Date: &updated, Completed: true,
			Description: "Your order is being prepared for shipment"})
	}
	if reached(o.Status, StatusShipped) {
		tl = append(tl, TimelineStep{Status: "Shipped", Date: &updated, Completed: true,
			Description: "Your order has been shipped. Tracking: " + o.TrackingNumber})
	}
	if o.Status == StatusDelivered {
		tl = append(tl, TimelineStep{Status: "Delivered", Date: &updated, Completed: true,
			Description: "Your order has been delivered successfully"})
	}

	// next expected step
	switch o.Status {
	case StatusConfirmed:
		tl = append(tl, TimelineStep{Status: "Processing",
			Description: "Your order will be processed within 1-2 business days"})
	case StatusProcessing:
		tl = append(tl, TimelineStep{Status: "Shipped",
			Description: "Your order will be shipped within 2-3 business days"})
	case StatusShipped:
		tl = append(tl, TimelineStep{Status: "Delivered",
			Description: "Estimated delivery within 3-5 business days"})
	}

	info := TrackingInfo{
		OrderID:        o.ID,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		Timeline:       tl,
	}
	if o.Status == StatusShipped {
		info.EstimatedDelivery = "3-5 business days"
	}
	return info
}

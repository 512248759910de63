package billing

// createSubOrderRequest is the wire shape of one sub-order at creation.
type createSubOrderRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerAddress string  `json:"customer_address"`
	ItemDescription string  `json:"item_description"`
	TrackingID      string  `json:"tracking_id"`
	SellingPriceLYD float64 `json:"selling_price_lyd" validate:"gte=0"`
}

type createGroupedOrderRequest struct {
	InvoiceName      string                  `json:"invoice_name" validate:"required"`
	AssignedUserID   *string                 `json:"assigned_user_id"`
	AssignedUserName *string                 `json:"assigned_user_name"`
	SubOrders        []createSubOrderRequest `json:"sub_orders" validate:"required,min=1,dive"`
}

type applyPaymentRequest struct {
	SubOrderID string  `json:"sub_order_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignRepresentativeRequest struct {
	// A null representative unassigns and resets the shipment status.
	Representative *Representative `json:"representative"`
}

type paymentResponse struct {
	GroupedOrder *GroupedOrder `json:"grouped_order"`
	Transaction  *Transaction  `json:"transaction"`
}

package orders

const (
	TopicOrderCreated   = "order.created"
	TopicStatusChanged  = "order.status.changed"
	TopicPaymentChanged = "order.payment.changed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

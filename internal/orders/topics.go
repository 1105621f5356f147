package orders

const (
	TopicOrderCreated    = "order.created"
	TopicOrderDeleted    = "order.deleted"
	TopicPaymentRecorded = "order.payment.recorded"
)

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

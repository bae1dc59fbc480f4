package models

// OrderDetailsWithStatus описывает прогресс одной строки заказа.
type OrderDetailsWithStatus struct {
	ID               int64                `json:"id"`
	OrderID          int64                `json:"orderId"`
	Item             Item                 `json:"item"`
	ItemAmount       int                  `json:"itemAmount"`
	ProductType      string               `json:"product_type"`
	CurrentStepIndex int                  `json:"currentStepIndex"`
	DifferentSteps   []StatusDefinition   `json:"differentSteps"`
	Updated          map[int64]*LocalTime `json:"updated"`
}

// OrderSummary строка списка заказов на дашборде.
type OrderSummary struct {
	OrderID      int64     `json:"orderId"`
	CustomerName string    `json:"customerName"`
	OrderCreated LocalTime `json:"orderCreated"`
	Priority     bool      `json:"priority"`
	TotalItems   int64     `json:"totalItems"`
}

// OrderDashboard заказ со всеми строками, как его отдает /api/get-all-orders.
type OrderDashboard struct {
	OrderID      int64                    `json:"orderId"`
	OrderCreated LocalTime                `json:"orderCreated"`
	Priority     bool                     `json:"priority"`
	CustomerName string                   `json:"customerName"`
	Notes        string                   `json:"notes"`
	Items        []OrderDetailsWithStatus `json:"items"`
}

// IsComplete сообщает, что все строки заказа дошли до последнего шага.
func (o OrderDashboard) IsComplete() bool {
	for _, item := range o.Items {
		if !item.IsComplete() {
			return false
		}
	}
	return true
}

package dataset

// SampleDataset is the column-oriented example dataset served by
// GET /api/sample-csv. Five synthetic customers, always the same.
type SampleDataset struct {
	CustomerID           []string  `json:"customer_id"`
	CustomerName         []string  `json:"customer_name"`
	Age                  []int     `json:"age"`
	MonthlyCharges       []float64 `json:"monthly_charges"`
	TotalCharges         []float64 `json:"total_charges"`
	ContractLength       []int     `json:"contract_length"`
	SupportCalls         []int     `json:"support_calls"`
	PaymentMethod        []string  `json:"payment_method"`
	InternetService      []string  `json:"internet_service"`
	CustomerSatisfaction []int     `json:"customer_satisfaction"`
}

// Sample returns the fixed demo dataset.
func Sample() SampleDataset {
	return SampleDataset{
		CustomerID:           []string{"CUST001", "CUST002", "CUST003", "CUST004", "CUST005"},
		CustomerName:         []string{"John Smith", "Jane Doe", "Bob Johnson", "Alice Brown", "Charlie Wilson"},
		Age:                  []int{35, 28, 45, 31, 52},
		MonthlyCharges:       []float64{65.5, 89.2, 120.0, 45.0, 95.5},
		TotalCharges:         []float64{1500.5, 2800.0, 5200.0, 800.0, 3500.0},
		ContractLength:       []int{12, 24, 36, 6, 24},
		SupportCalls:         []int{2, 5, 1, 8, 3},
		PaymentMethod:        []string{"Credit Card", "Bank Transfer", "Credit Card", "Cash", "Bank Transfer"},
		InternetService:      []string{"Fiber", "DSL", "Fiber", "DSL", "Fiber"},
		CustomerSatisfaction: []int{8, 6, 9, 3, 7},
	}
}

package pricing

// BytesToGB converts a byte count to binary gigabytes
func BytesToGB(sizeBytes int64) float64 {
	return float64(sizeBytes) / BytesPerGB
}

// BytesToTB converts a byte count to binary terabytes
func BytesToTB(sizeBytes int64) float64 {
	return float64(sizeBytes) / BytesPerTB
}

// MonthlyStorageCost returns the monthly USD cost of storing sizeBytes at costPerGB
func MonthlyStorageCost(sizeBytes int64, costPerGB float64) float64 {
	return BytesToGB(sizeBytes) * costPerGB
}

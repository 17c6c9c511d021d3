package domain

// PaymentMethod is a static store-operated wallet for one cryptocurrency.
// FallbackRate is the GBP-to-crypto multiplier used when the live oracle is
// unavailable.
type PaymentMethod struct {
	Name          string  `json:"name"`
	Ticker        string  `json:"ticker"`
	WalletAddress string  `json:"wallet_address"`
	FallbackRate  float64 `json:"fallback_rate"`
}

func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{
			Name:          "Bitcoin (BTC)",
			Ticker:        "BTC",
			WalletAddress: "3FZbgi29cpjq2GjdwV8eyHuJJnkLtktZc5",
			FallbackRate:  0.000023,
		},
		{
			Name:          "Ethereum (ETH)",
			Ticker:        "ETH",
			WalletAddress: "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
			FallbackRate:  0.00058,
		},
		{
			Name:          "Litecoin (LTC)",
			Ticker:        "LTC",
			WalletAddress: "LRXhXy5QjWPeDqwdkAsSiVm3JmJQxqA3w5",
			FallbackRate:  0.014,
		},
		{
			Name:          "Monero (XMR)",
			Ticker:        "XMR",
			WalletAddress: "47V8V3vJyNok7Q6hVmUeXQU7YbqDop5gRjYf7TyfQ4HsPZ3sEWa1X1J5Qkqo5kEJ5n7dwV1qJ5r5t5J5r5t5J5r",
			FallbackRate:  0.006,
		},
	}
}

func DefaultDeliveryOptions() []DeliveryOption {
	return []DeliveryOption{
		{Type: "Standard (2-4 days)", Fee: 5},
		{Type: "Express (next day)", Fee: 9},
		{Type: "Collection", Fee: 0},
	}
}

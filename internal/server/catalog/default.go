package catalog

// Default returns the production tier ladder. Prices are in rubles, token
// budgets per calendar month.
func Default() *Catalog {
	tiers := []Tier{
		{
			ID: FreeTierID, Name: "Free", Price: 0,
			Limits: TierLimits{DailyMessages: 100, DailyImageGenerate: 0, DailyImageSend: 2, DailyVideoSend: 0, MonthlyTokens: 10_000},
			Models: []string{"google/gemma-3-4b-it"},
		},
		{
			ID: "lite", Name: "Lite", Price: 15,
			Limits: TierLimits{DailyMessages: 200, DailyImageGenerate: 1, DailyImageSend: 5, DailyVideoSend: 1, MonthlyTokens: 50_000},
			Models: []string{"openai/gpt-oss-20b"},
		},
		{
			ID: "lite_plus", Name: "Lite+", Price: 399,
			Limits: TierLimits{DailyMessages: 350, DailyImageGenerate: 3, DailyImageSend: 10, DailyVideoSend: 2, MonthlyTokens: 100_000},
			Models: []string{"google/gemini-2.0-flash-lite-001"},
		},
		{
			ID: "vip", Name: "VIP", Price: 1499,
			Limits: TierLimits{DailyMessages: 500, DailyImageGenerate: 2, DailyImageSend: 15, DailyVideoSend: 2, MonthlyTokens: 500_000},
			Models: []string{"bytedance-seed/seed-1.6-flash"},
		},
		{
			ID: "vip_plus", Name: "VIP+", Price: 4999,
			Limits: TierLimits{DailyMessages: 1000, DailyImageGenerate: 10, DailyImageSend: 30, DailyVideoSend: 5, MonthlyTokens: 600_000},
			Models: []string{"openai/gpt-5-image-mini"},
		},
		{
			ID: "quantum", Name: "Quantum", Price: 19_999,
			Limits: TierLimits{DailyMessages: 2000, DailyImageGenerate: 30, DailyImageSend: 50, DailyVideoSend: 10, MonthlyTokens: 800_000},
			Models: []string{"google/gemini-2.5-flash-image"},
		},
		{
			ID: "quantum_pro", Name: "Quantum Pro", Price: 49_999,
			Limits: TierLimits{DailyMessages: 5000, DailyImageGenerate: 70, DailyImageSend: 100, DailyVideoSend: 20, MonthlyTokens: 800_000},
			Models: []string{"openai/gpt-5.2"},
		},
		{
			ID: "quantum_infinite", Name: "Quantum Infinite", Price: 149_999,
			Limits: TierLimits{DailyMessages: 9000, DailyImageGenerate: 100, DailyImageSend: 250, DailyVideoSend: 50, MonthlyTokens: 1_000_000},
			Models: []string{"google/gemini-3-pro-preview", "openai/o1-pro"},
		},
	}

	// Price per 750K tokens, keys handed over manually after payment.
	apiKeyPrices := map[string]int64{
		"openai/gpt-5.2":              2999,
		"google/gemini-3-pro-preview": 3999,
		"openai/o1-pro":               5999,
	}

	return New(tiers, apiKeyPrices)
}

package domain

// DefaultCurrency is the settlement currency used when none is configured (Algerian dinar).
const DefaultCurrency = "DZD"

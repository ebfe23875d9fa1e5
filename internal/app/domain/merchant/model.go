// Package merchant defines the merchant records settlements pay out to.
package merchant

import "time"

// Account holds the payout destinations a merchant registered.
type Account struct {
	VPA           string `json:"vpa,omitempty"`
	BankAccount   string `json:"bank_account,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// Merchant is a registered payee.
type Merchant struct {
	ID        string    `json:"merchant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Account   Account   `json:"settlement_account"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

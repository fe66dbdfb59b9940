package models

// Referral is an invite code owned by a wallet. Uses is incremented once per
// finalized impact that carried the code, never at submission time.
type Referral struct {
	Code        string `json:"code" db:"code"`
	OwnerWallet string `json:"owner_wallet" db:"owner_wallet"`
	Uses        int    `json:"uses" db:"uses"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
}

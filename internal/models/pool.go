package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ============================================================================
// SPONSOR POOLS (TIME-WINDOWED REWARD BUDGETS)
// ============================================================================

type Pool struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	StartAt       int64         `json:"start_at" db:"start_at"`
	EndAt         int64         `json:"end_at" db:"end_at"`
	Budget        float64       `json:"budget" db:"budget"`
	Contributions Contributions `json:"contributions" db:"contributions"`
	Distributions Distributions `json:"distributions" db:"distributions"`
	CreatedAt     int64         `json:"created_at" db:"created_at"`
}

type Contribution struct {
	Sponsor string  `json:"sponsor"`
	Amount  float64 `json:"amount"`
}

type Allocation struct {
	WalletAddress string    `json:"wallet_address"`
	ImpactID      uuid.UUID `json:"impact_id"`
	Amount        float64   `json:"amount"`
}

// Distribution is one distribution event appended to a pool. A pool may carry
// any number of these; the same eligible impacts may be covered more than once.
type Distribution struct {
	At               int64        `json:"at"`
	TotalDistributed float64      `json:"total_distributed"`
	Allocations      []Allocation `json:"allocations"`
}

// TotalBudget is the base budget plus all sponsor contributions.
func (p *Pool) TotalBudget() float64 {
	total := p.Budget
	for _, c := range p.Contributions {
		total += c.Amount
	}
	return total
}

// InWindow reports whether an epoch-ms timestamp falls inside [StartAt, EndAt].
func (p *Pool) InWindow(ts int64) bool {
	return ts >= p.StartAt && ts <= p.EndAt
}

type (
	Contributions []Contribution
	Distributions []Distribution
)

func (c Contributions) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(Contributions{})
	}
	return json.Marshal(c)
}

func (c *Contributions) Scan(value any) error {
	if value == nil {
		*c = Contributions{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("Contributions: Scan failed, expected []byte but got %T", value)
	}
	return json.Unmarshal(b, c)
}

func (d Distributions) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(Distributions{})
	}
	return json.Marshal(d)
}

func (d *Distributions) Scan(value any) error {
	if value == nil {
		*d = Distributions{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("Distributions: Scan failed, expected []byte but got %T", value)
	}
	return json.Unmarshal(b, d)
}

package main

import (
	"github.com/hromada/backoffice/internal/infra/postgres"
)

// Repositories holds all repository instances.
type Repositories struct {
	Debtor      *postgres.DebtorRepository
	Charge      *postgres.ChargeRepository
	Receipt     *postgres.ReceiptRepository
	CNAPService *postgres.CNAPServiceRepository
	CNAPAccount *postgres.CNAPAccountRepository
	Registry    *postgres.RegistryRepository
	SearchLog   *postgres.SearchLogRepository
}

// NewRepositories creates the PostgreSQL repositories.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Debtor:      postgres.NewDebtorRepository(db),
		Charge:      postgres.NewChargeRepository(db),
		Receipt:     postgres.NewReceiptRepository(db),
		CNAPService: postgres.NewCNAPServiceRepository(db),
		CNAPAccount: postgres.NewCNAPAccountRepository(db),
		Registry:    postgres.NewRegistryRepository(db),
		SearchLog:   postgres.NewSearchLogRepository(db),
	}
}

package sql

import "database/sql"

// GetTxFromTrendProductRepo is a test helper to extract transaction from TrendProductRepository.
func GetTxFromTrendProductRepo(repo *TrendProductRepository) *sql.Tx {
	return repo.txn
}

// GetTxFromEventRepo is a test helper to extract transaction from TrendEventRepository.
func GetTxFromEventRepo(repo *TrendEventRepository) *sql.Tx {
	return repo.txn
}

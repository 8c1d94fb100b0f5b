package services

import (
	"fmt"

	"cloth_pos_backend/internal/repositories"
)

// --- AdminService Interface ---
type AdminService interface {
	ResetData() error
}

// --- adminService Implementation ---
type adminService struct {
	adminRepo repositories.AdminRepository
	txRunner  repositories.TxRunner
}

// NewAdminService creates a new instance of AdminService.
func NewAdminService(ar repositories.AdminRepository, tr repositories.TxRunner) AdminService {
	return &adminService{adminRepo: ar, txRunner: tr}
}

// ResetData wipes all transactional and catalog data in one transaction.
// User accounts survive the reset.
func (s *adminService) ResetData() error {
	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		return s.adminRepo.ResetData(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to reset data: %w", err)
	}
	return nil
}

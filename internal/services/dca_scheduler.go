package services

import (
	"errors"
	"log"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/robfig/cron/v3"
)

// DcaScheduler dispara la evaluación periódica de las reglas DCA de todas
// las billeteras según una expresión cron.
type DcaScheduler struct {
	spec    string
	service *WalletService
	cron    *cron.Cron
}

// NewDcaScheduler crea el scheduler. Si no se indica una expresión cron se
// evalúa cada hora.
func NewDcaScheduler(spec string, service *WalletService) *DcaScheduler {
	if spec == "" {
		spec = "@hourly"
	}
	return &DcaScheduler{spec: spec, service: service}
}

// Start registra el job y arranca el cron
func (s *DcaScheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Scheduler DCA iniciado con expresión %q", s.spec)
	return nil
}

// Stop detiene el cron sin interrumpir un pase en curso
func (s *DcaScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		log.Printf("Scheduler DCA detenido")
	}
}

func (s *DcaScheduler) runOnce() {
	persisted, err := s.service.RunDcaPass(time.Now().UTC())
	if err != nil {
		var noWallets *models.NoWalletsError
		if errors.As(err, &noWallets) {
			log.Printf("Pase DCA omitido: %v", err)
			return
		}
		log.Printf("Error en el pase DCA: %v", err)
		return
	}
	log.Printf("Pase DCA completado: %d compras persistidas", persisted)
}

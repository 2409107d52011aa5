// Package rates keeps the metal_rates table fresh: a reconfigurable
// background scheduler pulls troy-ounce spot prices, derives per-gram
// grade rates with a retail premium, and upserts the whole grade set
// in one transaction.
package rates

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/database"
	"github.com/zevar-co/zevargo/internal/models"
	"gorm.io/gorm"
)

// gramsPerTroyOunce converts troy-ounce spot prices to per-gram
var gramsPerTroyOunce = decimal.NewFromFloat(31.1035)

var (
	ratio22K = decimal.NewFromInt(22).Div(decimal.NewFromInt(24))
	ratio18K = decimal.NewFromInt(18).Div(decimal.NewFromInt(24))
)

// SyncConfig is the scheduler's mutable state, changed only via Configure
type SyncConfig struct {
	IntervalHours    int     `json:"interval"` // 0 = periodic sync disabled
	RetailPremiumPct float64 `json:"premium"`  // markup over raw spot
}

// Scheduler owns rate synchronization: periodic and on-demand syncs share
// one transactional upsert path, serialized by syncMu.
type Scheduler struct {
	db     *database.DB
	source SpotSource

	syncMu sync.Mutex // serializes sync runs

	mu     sync.Mutex // guards cfg and timer lifecycle
	cfg    SyncConfig
	cancel chan struct{} // closed to stop the running timer loop
	wg     sync.WaitGroup
}

// NewScheduler creates a rate sync scheduler with the given defaults
func NewScheduler(db *database.DB, source SpotSource, cfg SyncConfig) *Scheduler {
	return &Scheduler{
		db:     db,
		source: source,
		cfg:    cfg,
	}
}

// Config returns the current sync configuration
func (s *Scheduler) Config() SyncConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Start arms the periodic timer according to the current configuration
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartLocked()
	log.Printf("📡 Rate sync scheduler started (interval: %dh, premium: %.1f%%)",
		s.cfg.IntervalHours, s.cfg.RetailPremiumPct)
}

// Stop cancels the periodic timer and waits for a running sync to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
	log.Println("🛑 Rate sync scheduler stopped")
}

// Configure updates interval and premium, atomically restarting the timer:
// the old timer is cancelled before the new one is armed, so reconfiguration
// can never leave two periodic loops running.
func (s *Scheduler) Configure(intervalHours int, premiumPct float64) {
	if intervalHours < 0 {
		intervalHours = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.IntervalHours = intervalHours
	s.cfg.RetailPremiumPct = premiumPct
	s.restartLocked()
	log.Printf("🔧 Rate sync reconfigured (interval: %dh, premium: %.1f%%)", intervalHours, premiumPct)
}

// restartLocked cancels any running timer loop and arms a new one.
// Caller must hold s.mu.
func (s *Scheduler) restartLocked() {
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
	if s.cfg.IntervalHours <= 0 {
		return
	}

	cancel := make(chan struct{})
	s.cancel = cancel
	interval := time.Duration(s.cfg.IntervalHours) * time.Hour

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				premium := s.Config().RetailPremiumPct
				if _, err := s.SyncNow(context.Background(), premium); err != nil {
					log.Printf("❌ Periodic rate sync failed: %v", err)
				}
			case <-cancel:
				return
			}
		}
	}()
}

// DeriveRates turns a spot quote into per-gram grade rates with the retail
// premium applied. Pure; exposed for the calculator of record to be testable.
func DeriveRates(quote SpotQuote, premiumPct float64) models.RateSnapshot {
	mult := decimal.NewFromInt(1).Add(decimal.NewFromFloat(premiumPct).Div(decimal.NewFromInt(100)))

	goldGram := quote.GoldOunce.Div(gramsPerTroyOunce)
	silverGram := quote.SilverOunce.Div(gramsPerTroyOunce)

	return models.RateSnapshot{
		models.Grade24K:    goldGram.Mul(mult).Round(2),
		models.Grade22K:    goldGram.Mul(ratio22K).Mul(mult).Round(2),
		models.Grade18K:    goldGram.Mul(ratio18K).Mul(mult).Round(2),
		models.GradeSilver: silverGram.Mul(mult).Round(2),
	}
}

// SyncNow fetches spot prices and upserts all grade rates in one
// transaction. An unreachable spot source degrades to static
// approximations rather than failing the sync; only a storage fault
// returns an error, and then the previous rates remain authoritative.
func (s *Scheduler) SyncNow(ctx context.Context, premiumPct float64) (models.RateSnapshot, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	quote, err := s.source.FetchSpot(ctx)
	source := "live"
	if err != nil {
		log.Printf("⚠️ Spot source unreachable, using static approximations: %v", err)
		quote = StaticQuote()
		source = "static"
	}

	snapshot := DeriveRates(quote, premiumPct)

	if err := s.upsertAll(snapshot, source); err != nil {
		return nil, fmt.Errorf("rate upsert failed: %w", err)
	}

	log.Printf("✅ Rates synced (%s): 24K=%s 22K=%s 18K=%s SILVER=%s",
		source,
		snapshot[models.Grade24K], snapshot[models.Grade22K],
		snapshot[models.Grade18K], snapshot[models.GradeSilver])

	return snapshot, nil
}

// upsertAll writes every grade in one transaction, shifting the old
// rate_per_gram into previous_rate. All grades update or none do.
func (s *Scheduler) upsertAll(snapshot models.RateSnapshot, source string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for grade, rate := range snapshot {
			if err := upsertGrade(tx, grade, rate, source); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertGrade(tx *gorm.DB, grade models.MetalGrade, rate decimal.Decimal, source string) error {
	var existing models.MetalRate
	err := tx.Where("grade = ?", grade).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&models.MetalRate{
			Grade:        grade,
			RatePerGram:  rate,
			PreviousRate: rate,
			Source:       source,
		}).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&existing).Updates(map[string]interface{}{
		"previous_rate": existing.RatePerGram,
		"rate_per_gram": rate,
		"source":        source,
	}).Error
}

// OverrideRate manually sets one grade's rate, preserving the
// previous-rate shift invariant
func (s *Scheduler) OverrideRate(grade models.MetalGrade, rate decimal.Decimal) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.db.Transaction(func(tx *gorm.DB) error {
		return upsertGrade(tx, grade, rate, "manual")
	})
}

// Snapshot reads all current rates
func (s *Scheduler) Snapshot() (models.RateSnapshot, error) {
	return LoadSnapshot(s.db)
}

// LoadSnapshot reads the current per-grade rates from storage
func LoadSnapshot(db *database.DB) (models.RateSnapshot, error) {
	var rows []models.MetalRate
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	snapshot := make(models.RateSnapshot, len(rows))
	for _, r := range rows {
		snapshot[r.Grade] = r.RatePerGram
	}
	return snapshot, nil
}

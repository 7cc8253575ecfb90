package service

import (
	"context"
	"errors"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/flashmod/card-services/internal/cardsvc/models"
)

// SeedAll populates every empty module table from its fixture file. It is
// meant to run once at startup, before the listener accepts traffic, so no
// guard flag is needed on the request path. Failures are logged and
// skipped; seeding never blocks the service from starting.
func (s *CardService) SeedAll(ctx context.Context) {
	for _, module := range s.Modules() {
		s.seedModule(ctx, module)
	}
}

func (s *CardService) seedModule(ctx context.Context, module string) {
	table, err := s.table(module)
	if err != nil {
		log.Errorf("seeding %s: %v", module, err)
		return
	}

	// One row is enough to tell a populated table from an empty one.
	rows, err := s.store.Select(ctx, table, url.Values{"select": {"cardid"}, "limit": {"1"}})
	if err != nil {
		log.Errorf("seeding %s: check failed: %v", module, err)
		return
	}
	if len(rows) > 0 {
		log.Debugf("seeding %s: table %s already populated", module, table)
		return
	}

	cards, err := s.loadFixture(module)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnf("seeding %s: no fixture file, skipping", module)
		return
	}
	if err != nil {
		log.Errorf("seeding %s: %v", module, err)
		return
	}
	if len(cards) == 0 {
		return
	}

	if _, err := s.store.Insert(ctx, table, models.NewRows(cards), true); err != nil {
		log.Errorf("seeding %s: insert failed: %v", module, err)
		return
	}
	log.Infof("seeded %d cards into module %s", len(cards), module)
}

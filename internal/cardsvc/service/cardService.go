package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/flashmod/card-services/internal/cardsvc/models"
	"github.com/flashmod/card-services/internal/cardsvc/store"
)

var (
	ErrUnknownModule = errors.New("unknown module")
	ErrNotFound      = errors.New("card not found")
)

// CardService is the record gateway: it resolves a module id to its remote
// table, runs the CRUD operation against the store and reshapes rows into
// flat client cards.
type CardService struct {
	store       *store.SupabaseStore
	tables      map[string]string
	fixturesDir string
}

func NewCardService(store *store.SupabaseStore, tables map[string]string, fixturesDir string) *CardService {
	return &CardService{store: store, tables: tables, fixturesDir: fixturesDir}
}

// Modules lists the known module ids in stable order.
func (s *CardService) Modules() []string {
	modules := make([]string, 0, len(s.tables))
	for module := range s.tables {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

func (s *CardService) table(module string) (string, error) {
	table, ok := s.tables[module]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	return table, nil
}

// List returns every card of a module in the remote's natural order. An
// empty table yields an empty slice.
func (s *CardService) List(ctx context.Context, module string) ([]models.Card, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Select(ctx, table, url.Values{"select": {"cardid,data"}})
	if err != nil {
		return nil, err
	}
	return models.FlattenAll(rows), nil
}

// Create inserts a new card. A payload without a cardid gets the next id
// in the module's numbering. The scan-then-insert is not transactional:
// two concurrent creates without an id can pick the same number, in which
// case the table's unique key rejects the loser.
func (s *CardService) Create(ctx context.Context, module string, card models.Card) (models.Card, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	id, _ := card["cardid"].(string)
	if id == "" {
		id, err = s.nextCardID(ctx, module, table)
		if err != nil {
			return nil, err
		}
	}

	rows, err := s.store.Insert(ctx, table, []models.Row{models.NewRow(id, card)}, false)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert of %s returned no rows; check row level security and the cardid unique constraint", id)
	}
	return rows[0].Flatten(), nil
}

// nextCardID scans the module's existing ids of the form
// <module>_card_<N> and returns <module>_card_<maxN+1>.
func (s *CardService) nextCardID(ctx context.Context, module, table string) (string, error) {
	rows, err := s.store.Select(ctx, table, url.Values{"select": {"cardid"}})
	if err != nil {
		return "", err
	}

	prefix := module + "_card_"
	maxN := 0
	for _, row := range rows {
		suffix := strings.TrimPrefix(row.CardID, prefix)
		if suffix == row.CardID {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, maxN+1), nil
}

// Update replaces the stored payload of a card. The id is immutable: a
// cardid in the payload is dropped, and the whole data column is replaced
// rather than merged.
func (s *CardService) Update(ctx context.Context, module, id string, card models.Card) (models.Card, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.UpdateData(ctx, table, id, models.NewRow(id, card).Data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rows[0].Flatten(), nil
}

// Delete removes a card. Deleting an id that does not exist still
// succeeds.
func (s *CardService) Delete(ctx context.Context, module, id string) error {
	table, err := s.table(module)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, table, id)
}

// Reset wipes the module's table and reloads it from the fixture file,
// returning the number of fixture cards processed. Unlike seeding, a
// missing or invalid fixture file is an error here.
func (s *CardService) Reset(ctx context.Context, module string) (int, error) {
	table, err := s.table(module)
	if err != nil {
		return 0, err
	}

	cards, err := s.loadFixture(module)
	if err != nil {
		return 0, err
	}

	if err := s.store.DeleteAll(ctx, table); err != nil {
		return 0, err
	}
	if len(cards) > 0 {
		if _, err := s.store.Insert(ctx, table, models.NewRows(cards), true); err != nil {
			return 0, err
		}
	}
	return len(cards), nil
}

// Import wipes the module's table and replaces its contents with the
// given cards, returning how many were inserted. A failed insert leaves
// the table already wiped; there is no rollback.
func (s *CardService) Import(ctx context.Context, module string, cards []models.Card) (int, error) {
	table, err := s.table(module)
	if err != nil {
		return 0, err
	}

	if err := s.store.DeleteAll(ctx, table); err != nil {
		return 0, err
	}
	if len(cards) > 0 {
		if _, err := s.store.Insert(ctx, table, models.NewRows(cards), true); err != nil {
			return 0, err
		}
	}
	return len(cards), nil
}

func (s *CardService) loadFixture(module string) ([]models.Card, error) {
	path := filepath.Join(s.fixturesDir, module+"_cards.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var cards []models.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return cards, nil
}

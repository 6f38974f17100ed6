/*
Package game
File: fixture.go
Description:
    Loads the static seed data (artists, fans, the initial user and the
    presale counter) from YAML. The fixture is read once at process start
    and handed to NewStore.
*/

package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/catalog.yaml
var defaultCatalog []byte

var (
	// ErrInvalidFixture is returned for seed data that would break a store invariant.
	ErrInvalidFixture = errors.New("invalid fixture")

	// ErrDuplicateRelease is returned when two releases share an ID anywhere in the catalog.
	ErrDuplicateRelease = fmt.Errorf("%w: duplicate release id", ErrInvalidFixture)
)

// Fixture is the root seed document.
type Fixture struct {
	UnitPrice decimal.Decimal `yaml:"unit_price"` // Price of one token before bundle discounts
	User      User            `yaml:"user"`
	Presale   PresaleState    `yaml:"presale"`
	Artists   []Artist        `yaml:"artists"`
	Fans      []Fan           `yaml:"fans"`
}

// ParseFixture decodes and validates a YAML seed document.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixture reads a seed document from disk.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// DefaultFixture returns the seed catalog compiled into the binary.
func DefaultFixture() *Fixture {
	fx, err := ParseFixture(defaultCatalog)
	if err != nil {
		// The embedded document is under version control; a failure here is a build defect.
		panic(err)
	}
	return fx
}

// Validate checks the invariants the store relies on.
func (fx *Fixture) Validate() error {
	if fx.Presale.Total < 0 || fx.Presale.Sold < 0 || fx.Presale.Sold > fx.Presale.Total {
		return fmt.Errorf("%w: presale sold %d of %d", ErrInvalidFixture, fx.Presale.Sold, fx.Presale.Total)
	}
	if fx.User.TokenBalance < 0 {
		return fmt.Errorf("%w: negative token balance", ErrInvalidFixture)
	}

	seen := make(map[int]int) // Release ID -> owning artist ID
	for _, a := range fx.Artists {
		for _, r := range a.Releases {
			if owner, ok := seen[r.ID]; ok {
				return fmt.Errorf("%w %d (artists %d and %d)", ErrDuplicateRelease, r.ID, owner, a.ID)
			}
			seen[r.ID] = a.ID
			if r.MonthlyGoal <= 0 {
				return fmt.Errorf("%w: release %d has no monthly goal", ErrInvalidFixture, r.ID)
			}
		}
	}
	return nil
}

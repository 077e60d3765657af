// Package seed loads inventory fixtures written in YAML.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/internal/models"
)

//go:embed fixtures/manaus.yaml
var defaultFixture string

type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Location struct {
	Key         string    `yaml:"key"`
	Label       string    `yaml:"label"`
	Responsible string    `yaml:"responsible"`
	Status      string    `yaml:"status"`
	Parent      string    `yaml:"parent"`
	Position    *Position `yaml:"position"`
}

type Unit struct {
	Key         string    `yaml:"key"`
	Label       string    `yaml:"label"`
	Responsible string    `yaml:"responsible"`
	Status      string    `yaml:"status"`
	Location    string    `yaml:"location"`
	Position    *Position `yaml:"position"`
}

type Equipment struct {
	Label         string    `yaml:"label"`
	Status        string    `yaml:"status"`
	License       string    `yaml:"license"`
	Contact       string    `yaml:"contact"`
	Icon          string    `yaml:"icon"`
	CustomIconURL string    `yaml:"custom_icon_url"`
	Location      string    `yaml:"location"`
	Unit          string    `yaml:"unit"`
	Position      *Position `yaml:"position"`
}

// Fixture lists rows by kind. Locations and units carry a key that later
// entries use to reference them; a parent must be listed before its children.
type Fixture struct {
	Locations []Location  `yaml:"locations"`
	Units     []Unit      `yaml:"units"`
	Equipment []Equipment `yaml:"equipment"`
}

// Parse decodes a fixture and rejects unknown fields.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if err == io.EOF {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// Default returns the built-in MANAUS sample map.
func Default() *Fixture {
	fx, err := Parse(strings.NewReader(defaultFixture))
	if err != nil {
		panic(err)
	}
	return fx
}

// Result counts created nodes per kind.
type Result struct {
	Locations int
	Units     int
	Equipment int
}

// Apply creates every fixture row through sy, so the usual validation applies.
func Apply(ctx context.Context, sy *inventory.Synchronizer, fx *Fixture) (Result, error) {
	var res Result
	locs := map[string]uuid.UUID{}
	units := map[string]uuid.UUID{}

	ref := func(m map[string]uuid.UUID, key, what string) (*uuid.UUID, error) {
		if key == "" {
			return nil, nil
		}
		id, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", what, key)
		}
		return &id, nil
	}

	for _, l := range fx.Locations {
		parent, err := ref(locs, l.Parent, "location")
		if err != nil {
			return res, err
		}
		n, err := sy.Create(ctx, inventory.LocationAttrs{
			Label:            l.Label,
			Responsible:      optional(l.Responsible),
			Status:           models.SiteStatus(l.Status),
			ParentLocationID: parent,
		}, position(l.Position))
		if err != nil {
			return res, fmt.Errorf("location %q: %w", l.Label, err)
		}
		if l.Key != "" {
			locs[l.Key] = n.RowID()
		}
		res.Locations++
	}

	for _, u := range fx.Units {
		loc, err := ref(locs, u.Location, "location")
		if err != nil {
			return res, err
		}
		n, err := sy.Create(ctx, inventory.UnitAttrs{
			Label:       u.Label,
			Responsible: optional(u.Responsible),
			Status:      models.SiteStatus(u.Status),
			LocationID:  loc,
		}, position(u.Position))
		if err != nil {
			return res, fmt.Errorf("unit %q: %w", u.Label, err)
		}
		if u.Key != "" {
			units[u.Key] = n.RowID()
		}
		res.Units++
	}

	for _, e := range fx.Equipment {
		loc, err := ref(locs, e.Location, "location")
		if err != nil {
			return res, err
		}
		unit, err := ref(units, e.Unit, "unit")
		if err != nil {
			return res, err
		}
		_, err = sy.Create(ctx, inventory.EquipmentAttrs{
			Label:         e.Label,
			Status:        models.EquipmentStatus(e.Status),
			License:       optional(e.License),
			Contact:       optional(e.Contact),
			IconType:      models.IconKind(e.Icon),
			CustomIconURL: optional(e.CustomIconURL),
			LocationID:    loc,
			UnitID:        unit,
		}, position(e.Position))
		if err != nil {
			return res, fmt.Errorf("equipment %q: %w", e.Label, err)
		}
		res.Equipment++
	}
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func position(p *Position) *inventory.Position {
	if p == nil {
		return nil
	}
	return &inventory.Position{X: p.X, Y: p.Y}
}

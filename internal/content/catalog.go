// Package content loads and validates the immutable location/role
// catalog the engine assigns from. Packs are embedded JSON documents;
// nothing is persisted or reloaded at runtime.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
)

//go:embed data/*.json
var packFS embed.FS

const (
	minRolesPerLocation = 6
	maxRolesPerLocation = 8
)

// Role is one assignable role within a location. Role ids are unique
// within their location, not globally.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hint string `json:"hint"`
}

// Location is one place a round can be set in.
type Location struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Atmosphere string `json:"atmosphere"`
	Roles      []Role `json:"roles"`
}

// Pack is a validated, immutable set of locations.
type Pack struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Locations []Location `json:"locations"`
}

// Catalog holds every loaded pack, queryable by id.
type Catalog struct {
	packs map[string]*Pack
}

// Load parses and validates all embedded packs. A malformed pack fails
// the load; it does not crash the process, but no round can start
// without a valid active pack.
func Load() (*Catalog, error) {
	entries, err := fs.ReadDir(packFS, "data")
	if err != nil {
		return nil, fmt.Errorf("reading embedded packs: %w", err)
	}

	c := &Catalog{packs: make(map[string]*Pack)}
	for _, entry := range entries {
		raw, err := packFS.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading pack %s: %w", entry.Name(), err)
		}
		var p Pack
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing pack %s: %w", entry.Name(), err)
		}
		if err := validate(&p); err != nil {
			return nil, fmt.Errorf("pack %s: %w", entry.Name(), err)
		}
		if _, dup := c.packs[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pack id %q", p.ID)
		}
		c.packs[p.ID] = &p
	}
	if len(c.packs) == 0 {
		return nil, fmt.Errorf("no packs embedded")
	}
	return c, nil
}

func validate(p *Pack) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("pack id and name are required")
	}
	if len(p.Locations) == 0 {
		return fmt.Errorf("pack has no locations")
	}

	locIDs := make(map[string]bool, len(p.Locations))
	for i := range p.Locations {
		loc := &p.Locations[i]
		if loc.ID == "" || loc.Name == "" {
			return fmt.Errorf("location %d: id and name are required", i)
		}
		if locIDs[loc.ID] {
			return fmt.Errorf("duplicate location id %q", loc.ID)
		}
		locIDs[loc.ID] = true

		if n := len(loc.Roles); n < minRolesPerLocation || n > maxRolesPerLocation {
			return fmt.Errorf("location %q: %d roles, want %d-%d",
				loc.ID, n, minRolesPerLocation, maxRolesPerLocation)
		}
		roleIDs := make(map[string]bool, len(loc.Roles))
		for _, role := range loc.Roles {
			if role.ID == "" || role.Name == "" {
				return fmt.Errorf("location %q: role id and name are required", loc.ID)
			}
			if roleIDs[role.ID] {
				return fmt.Errorf("location %q: duplicate role id %q", loc.ID, role.ID)
			}
			roleIDs[role.ID] = true
		}
	}
	return nil
}

// Pack returns the pack with the given id, or nil.
func (c *Catalog) Pack(id string) *Pack {
	return c.packs[id]
}

// PackIDs lists the ids of all loaded packs.
func (c *Catalog) PackIDs() []string {
	ids := make([]string, 0, len(c.packs))
	for id := range c.packs {
		ids = append(ids, id)
	}
	return ids
}

// Location returns the location with the given id, or nil.
func (p *Pack) Location(id string) *Location {
	for i := range p.Locations {
		if p.Locations[i].ID == id {
			return &p.Locations[i]
		}
	}
	return nil
}

// LocationNames returns location display names in pack order. The
// order is stable so projections stay byte-identical between calls.
func (p *Pack) LocationNames() []string {
	names := make([]string, len(p.Locations))
	for i := range p.Locations {
		names[i] = p.Locations[i].Name
	}
	return names
}

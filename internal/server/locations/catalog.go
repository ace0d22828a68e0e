// Package locations is the catalog of country and city ids clients pick
// criteria and attributes from. The matching core treats ids as opaque
// numbers; only the transport consults the catalog.
package locations

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var defaultCatalog []byte

var ErrUnknownLocation = errors.New("unknown location")

type City struct {
	ID   uint32 `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Country struct {
	ID     uint32 `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Cities []City `yaml:"cities" json:"cities"`
}

type Catalog struct {
	Countries []Country `yaml:"countries" json:"countries"`

	countries map[uint32]*Country
	cityOwner map[uint32]uint32
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from path; an empty path means Default.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML catalog. Ids must be non-zero and unique.
func Parse(b []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c.countries = make(map[uint32]*Country, len(c.Countries))
	c.cityOwner = make(map[uint32]uint32)
	for i := range c.Countries {
		country := &c.Countries[i]
		if country.ID == 0 {
			return nil, fmt.Errorf("country %q: id 0 is reserved", country.Name)
		}
		if _, dup := c.countries[country.ID]; dup {
			return nil, fmt.Errorf("duplicate country id %d", country.ID)
		}
		c.countries[country.ID] = country

		for _, city := range country.Cities {
			if city.ID == 0 {
				return nil, fmt.Errorf("city %q: id 0 is reserved", city.Name)
			}
			if _, dup := c.cityOwner[city.ID]; dup {
				return nil, fmt.Errorf("duplicate city id %d", city.ID)
			}
			c.cityOwner[city.ID] = country.ID
		}
	}
	return c, nil
}

// Country looks up a country by id.
func (c *Catalog) Country(id uint32) (*Country, bool) {
	country, ok := c.countries[id]
	return country, ok
}

// CountryOf returns the country a city belongs to.
func (c *Catalog) CountryOf(cityID uint32) (uint32, bool) {
	id, ok := c.cityOwner[cityID]
	return id, ok
}

// Validate checks a (country, city) pair where 0 means unset. When both are
// set the city must belong to the country.
func (c *Catalog) Validate(countryID, cityID uint32) error {
	if countryID != 0 {
		if _, ok := c.countries[countryID]; !ok {
			return fmt.Errorf("%w: country %d", ErrUnknownLocation, countryID)
		}
	}
	if cityID == 0 {
		return nil
	}

	owner, ok := c.cityOwner[cityID]
	if !ok {
		return fmt.Errorf("%w: city %d", ErrUnknownLocation, cityID)
	}
	if countryID != 0 && owner != countryID {
		return fmt.Errorf("%w: city %d is not in country %d", ErrUnknownLocation, cityID, countryID)
	}
	return nil
}

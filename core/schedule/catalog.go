package schedule

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultPlaces are the practice grounds used when the catalog does not list any.
var DefaultPlaces = []string{"Атриум", "БК"}

// Catalog is the static school configuration served to clients and used to check bookings.
type Catalog struct {
	Groups    []string `mapstructure:"groups" json:"groups"`
	Days      []string `mapstructure:"days" json:"days"`
	Times     []string `mapstructure:"times" json:"times"`
	Blackouts []string `mapstructure:"notWorkingDates" json:"notWorkingDates"`
	Places    []string `mapstructure:"places" json:"places"`
}

// LoadCatalog reads the catalog file (json, yaml or toml, by extension).
// A missing file yields an empty catalog with the default places.
func LoadCatalog(path string) (Catalog, error) {
	v := viper.New()
	v.SetDefault("groups", []string{})
	v.SetDefault("days", []string{})
	v.SetDefault("times", []string{})
	v.SetDefault("notWorkingDates", []string{})
	v.SetDefault("places", DefaultPlaces)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
			if err := v.ReadInConfig(); err != nil {
				return Catalog{}, errors.Wrapf(err, "reading catalog %s", path)
			}
		} else if !os.IsNotExist(err) {
			return Catalog{}, errors.Wrapf(err, "stat %s", path)
		}
	}

	var cat Catalog
	if err := v.Unmarshal(&cat); err != nil {
		return Catalog{}, errors.Wrap(err, "decoding catalog")
	}
	if len(cat.Places) == 0 {
		cat.Places = DefaultPlaces
	}
	for _, d := range cat.Blackouts {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(d)); err != nil {
			return Catalog{}, errors.Errorf("catalog: malformed not working date %q", d)
		}
	}
	return cat, nil
}

// Rules returns the availability rules described by the catalog.
func (c Catalog) Rules(loc *time.Location) Rules {
	return Rules{
		WorkingDays: c.Days,
		Blackouts:   c.Blackouts,
		Times:       c.Times,
		Places:      c.Places,
		Location:    loc,
	}
}

// HasGroup reports whether group is listed. An empty group list accepts any group.
func (c Catalog) HasGroup(group string) bool {
	if len(c.Groups) == 0 {
		return true
	}
	return contains(c.Groups, group)
}

// Package palette generates colour palettes through the prompt service,
// suggests how to apply them, and keeps the user's saved collection.
package palette

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// StorageKey holds the saved collection.
const StorageKey = "saved-palettes"

// DefaultName is given to freshly generated palettes.
const DefaultName = "My New Palette"

// Size is the number of colours every generated palette carries.
const Size = 5

// Color is one swatch.
type Color struct {
	ColorName string `json:"colorName" validate:"required"`
	HexCode   string `json:"hexCode" validate:"required,hexcolor,len=7"`
	RGB       string `json:"rgb"`
}

// Palette is a named set of colours. IDs are ULIDs for palettes created
// here; older saved palettes may carry any unique string.
type Palette struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Colors []Color `json:"colors"`
}

func (p Palette) ItemID() string { return p.ID }

// HexCodes lists the palette's hex codes in order.
func (p Palette) HexCodes() []string {
	out := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = c.HexCode
	}
	return out
}

func (p Palette) clone() Palette {
	p.Colors = append([]Color(nil), p.Colors...)
	return p
}

// DesignType names what a palette should be applied to.
type DesignType string

const (
	DesignWebsite       DesignType = "website"
	DesignLogo          DesignType = "logo"
	DesignPoster        DesignType = "poster"
	DesignIllustration  DesignType = "illustration"
	DesignBrandIdentity DesignType = "brand-identity"
)

// DesignTypes is the selectable list, default first.
var DesignTypes = []DesignType{DesignWebsite, DesignLogo, DesignPoster, DesignIllustration, DesignBrandIdentity}

// Title is the human label.
func (d DesignType) Title() string {
	switch d {
	case DesignWebsite:
		return "Website"
	case DesignLogo:
		return "Logo"
	case DesignPoster:
		return "Poster"
	case DesignIllustration:
		return "Illustration"
	case DesignBrandIdentity:
		return "Brand Identity"
	}
	return strings.TrimSpace(string(d))
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a time-ordered ULID.
func NewID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at.UTC()), entropy).String()
}

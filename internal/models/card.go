package models

import (
	"strings"
	"time"
)

// Card is one collectible card tracked by the catalog. A card is uniquely
// identified by its normalized (serial number, name) pair; the display
// columns keep the casing from the import that created or last touched it.
type Card struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SerialNumber string    `json:"serial_number" gorm:"not null"`
	Name         string    `json:"name" gorm:"not null;index"`
	SerialKey    string    `json:"-" gorm:"not null;uniqueIndex:idx_card_serial_name"`
	NameKey      string    `json:"-" gorm:"not null;uniqueIndex:idx_card_serial_name"`
	SetName      string    `json:"set_name,omitempty"`
	Rarity       string    `json:"rarity,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeSerial trims surrounding whitespace and lowercases a serial number
// for comparison. Display casing is kept on the Card row itself.
func NormalizeSerial(serial string) string {
	return strings.ToLower(strings.TrimSpace(serial))
}

// NormalizeName trims and case-folds a card name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SetIdentity fills the display and normalized key columns from the raw
// serial number and name of an import entry.
func (c *Card) SetIdentity(serialNumber, name string) {
	c.SerialNumber = strings.TrimSpace(serialNumber)
	c.Name = strings.TrimSpace(name)
	c.SerialKey = NormalizeSerial(serialNumber)
	c.NameKey = NormalizeName(name)
}

// MatchesSerial reports whether the card's serial contains the given
// fragment, ignoring case.
func (c *Card) MatchesSerial(fragment string) bool {
	return strings.Contains(c.SerialKey, NormalizeSerial(fragment))
}

// MatchesName reports whether the card's name contains the given fragment,
// ignoring case.
func (c *Card) MatchesName(fragment string) bool {
	return strings.Contains(c.NameKey, NormalizeName(fragment))
}

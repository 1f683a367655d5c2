package data

import "time"

// ProfileRecord is a stored profile; its pillars live in PillarRecord.
type ProfileRecord struct {
	ID         uint           `gorm:"primaryKey"`
	Slug       string         `gorm:"size:128;uniqueIndex;not null"`
	Name       string         `gorm:"size:255;not null"`
	Category   string         `gorm:"size:128;index"`
	Role       string         `gorm:"size:255"`
	Reflection string         `gorm:"type:text"`
	Pillars    []PillarRecord `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PillarRecord is one pillar assessment of a profile.
type PillarRecord struct {
	ID         uint   `gorm:"primaryKey"`
	ProfileID  uint   `gorm:"index;not null"`
	Position   int    `gorm:"not null"`
	Pillar     string `gorm:"size:255;not null"`
	Assessment string `gorm:"size:64;not null"`
	Evidence   string `gorm:"type:text"`
}

// Setting is a name/value override for environment configuration.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active bool   `gorm:"not null;default:true"`
}

// ChatMessage is one audited turn of a chat session.
type ChatMessage struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"size:64;index;not null"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text;not null"`
	Model     string `gorm:"size:64"`
	Source    string `gorm:"size:32"`
	CreatedAt time.Time
}

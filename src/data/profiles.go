package data

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

// SeedProfiles inserts or replaces profiles by slug in one transaction and
// returns how many were written. Slugs match the ones NewCatalog assigns, so
// repeated names get numbered rows.
func SeedProfiles(ctx context.Context, db *gorm.DB, profiles []mmr.Profile) (int, error) {
	written := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slugs := dataset.Slugs(profiles)
		for i, p := range profiles {
			slug := slugs[i]
			if dataset.Slug(p.Name) == "" {
				return fmt.Errorf("profile %q has no usable slug", p.Name)
			}

			var rec ProfileRecord
			err := tx.Where("slug = ?", slug).First(&rec).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				rec = ProfileRecord{Slug: slug}
			case err != nil:
				return err
			}
			rec.Name = p.Name
			rec.Category = p.Category
			rec.Role = p.Role
			rec.Reflection = p.Reflection
			if err := tx.Omit("Pillars").Save(&rec).Error; err != nil {
				return err
			}

			if err := tx.Where("profile_id = ?", rec.ID).Delete(&PillarRecord{}).Error; err != nil {
				return err
			}
			if len(p.Pillars) > 0 {
				pillars := make([]PillarRecord, len(p.Pillars))
				for i, pa := range p.Pillars {
					pillars[i] = PillarRecord{
						ProfileID:  rec.ID,
						Position:   i,
						Pillar:     pa.Pillar,
						Assessment: pa.Assessment,
						Evidence:   pa.Evidence,
					}
				}
				if err := tx.Create(&pillars).Error; err != nil {
					return err
				}
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("data: seed profiles: %w", err)
	}
	return written, nil
}

// LoadProfiles returns every stored profile in insertion order.
func LoadProfiles(ctx context.Context, db *gorm.DB) ([]mmr.Profile, error) {
	var recs []ProfileRecord
	err := db.WithContext(ctx).
		Preload("Pillars", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("data: load profiles: %w", err)
	}

	out := make([]mmr.Profile, len(recs))
	for i, r := range recs {
		p := mmr.Profile{Name: r.Name, Category: r.Category, Role: r.Role, Reflection: r.Reflection}
		for _, pr := range r.Pillars {
			p.Pillars = append(p.Pillars, mmr.PillarAssessment{Pillar: pr.Pillar, Assessment: pr.Assessment, Evidence: pr.Evidence})
		}
		out[i] = p
	}
	return out, nil
}

// CountProfiles reports how many profiles are stored.
func CountProfiles(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&ProfileRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("data: count profiles: %w", err)
	}
	return n, nil
}

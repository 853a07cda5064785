package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// BranchType classifies where a branch trades.
type BranchType string

const (
	BranchTypeMall       BranchType = "mall"
	BranchTypeRoadside   BranchType = "roadside"
	BranchTypeCampus     BranchType = "campus"
	BranchTypeCommercial BranchType = "commercial"
)

// BranchTypes returns every branch type in canonical iteration order.
func BranchTypes() []BranchType {
	return []BranchType{BranchTypeMall, BranchTypeRoadside, BranchTypeCampus, BranchTypeCommercial}
}

// Valid reports whether t is one of the known branch types.
func (t BranchType) Valid() bool {
	switch t {
	case BranchTypeMall, BranchTypeRoadside, BranchTypeCampus, BranchTypeCommercial:
		return true
	}
	return false
}

// ParseBranchType converts a raw string into a BranchType.
func ParseBranchType(s string) (BranchType, error) {
	t := BranchType(s)
	if !t.Valid() {
		return "", eris.Errorf("model: unknown branch type %q", s)
	}
	return t, nil
}

// AreaClass describes the neighborhood around a branch.
type AreaClass string

const (
	AreaClassResidential AreaClass = "residential"
	AreaClassMixed       AreaClass = "mixed"
	AreaClassCommercial  AreaClass = "commercial"
)

// AreaClasses returns every area class in canonical order.
func AreaClasses() []AreaClass {
	return []AreaClass{AreaClassResidential, AreaClassMixed, AreaClassCommercial}
}

// Valid reports whether c is one of the known area classes.
func (c AreaClass) Valid() bool {
	switch c {
	case AreaClassResidential, AreaClassMixed, AreaClassCommercial:
		return true
	}
	return false
}

// ParseAreaClass converts a raw string into an AreaClass.
func ParseAreaClass(s string) (AreaClass, error) {
	c := AreaClass(s)
	if !c.Valid() {
		return "", eris.Errorf("model: unknown area class %q", s)
	}
	return c, nil
}

// Branch is a physical retail location.
type Branch struct {
	ID          string     `json:"id" yaml:"id,omitempty"`
	Name        string     `json:"name" yaml:"name" validate:"required,max=120"`
	Address     string     `json:"address" yaml:"address" validate:"max=255"`
	Latitude    float64    `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Longitude   float64    `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
	BranchType  BranchType `json:"branch_type" yaml:"branch_type" validate:"required,branch_type"`
	OpeningDate string     `json:"opening_date,omitempty" yaml:"opening_date" validate:"omitempty,datetime=2006-01-02"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
}

// PerformanceRecord holds one branch's operating metrics for one month.
// At most one record per (BranchID, Month) is expected but not enforced.
type PerformanceRecord struct {
	ID                   string    `json:"id" yaml:"id,omitempty"`
	BranchID             string    `json:"branch_id" yaml:"branch_id,omitempty" validate:"required"`
	Month                Month     `json:"month" yaml:"month" validate:"required"`
	Sales                float64   `json:"sales" yaml:"sales" validate:"gte=0"`
	RentCost             float64   `json:"rent_cost" yaml:"rent_cost" validate:"gte=0"`
	StaffCount           int       `json:"staff_count" yaml:"staff_count" validate:"gte=1"`
	OperatingHours       int       `json:"operating_hours" yaml:"operating_hours" validate:"gte=1,lte=24"`
	Complaints           int       `json:"complaints" yaml:"complaints" validate:"gte=0"`
	CompetitorCount      int       `json:"competitor_count" yaml:"competitor_count" validate:"gte=0"`
	NearbyEstablishments []string  `json:"nearby_establishments" yaml:"nearby_establishments" validate:"dive,max=64"`
	AreaClass            AreaClass `json:"area_class,omitempty" yaml:"area_class" validate:"omitempty,area_class"`
	CreatedAt            time.Time `json:"created_at" yaml:"-"`
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Match types shared by the rule axes. Not every axis accepts every
	// type; see AllowedMatchTypes.
	MatchContains   MatchType = "contains"
	MatchExact      MatchType = "exact"
	MatchStartsWith MatchType = "startswith"
	MatchSuffix     MatchType = "suffix"

	UnitHours UnitType = "hours"
	UnitCount UnitType = "count"

	RankS ValueRank = "S"
	RankA ValueRank = "A"
	RankB ValueRank = "B"
	RankC ValueRank = "C"
)

// Rule axes. Each axis has its own table, cache, and allowed match types.
const (
	AxisCategory    RuleAxis = "category"
	AxisUnitType    RuleAxis = "unit_type"
	AxisSubCategory RuleAxis = "sub_category"
)

type (
	MatchType string
	UnitType  string
	ValueRank string
	RuleAxis  string

	Date struct {
		time.Time
	}

	// WorkRecord is one imported timesheet row. Quantity semantics depend
	// on the resolved unit type: elapsed hours for hours-type work items,
	// number of occurrences for count-type ones.
	WorkRecord struct {
		ID          int64
		WorkDate    Date
		StaffName   string
		Department  string
		Category1   string // department-level source label, informational
		Category2   string // source sub-category, used for classification
		WorkName    string
		UnitPrice   int64
		Quantity    float64
		TotalAmount int64
		Status      string
		SourceMonth string
	}

	// Category is a display category: one of the small set of top-level
	// labels used for reporting.
	Category struct {
		ID                int64
		Name              string
		Color             string
		BadgeBgColor      string
		BadgeTextColor    string
		IsReductionTarget bool
		ValueRank         ValueRank
		SortOrder         int
	}

	// KeywordRule maps a keyword to a display category.
	KeywordRule struct {
		ID         int64
		Keyword    string
		CategoryID int64
		MatchType  MatchType
		Priority   int
		IsActive   bool
	}

	// UnitTypeRule decides whether a work item's quantity is hours or a
	// count of occurrences.
	UnitTypeRule struct {
		ID        int64
		Keyword   string
		UnitType  UnitType
		MatchType MatchType
		Priority  int
		IsActive  bool
	}

	// SubCategoryRule tags items within a parent display category with a
	// finer-grained label. It never overrides the parent classification.
	SubCategoryRule struct {
		ID               int64
		ParentCategoryID int64 // 0 means any parent
		SubCategoryName  string
		Keyword          string
		MatchType        MatchType
		Priority         int
		IsActive         bool
	}

	// ReductionTarget flags an exact work name as a reduction candidate,
	// independent of category-level reduction flags.
	ReductionTarget struct {
		ID                int64
		WorkName          string
		IsReductionTarget bool
	}

	// Resolution is the classification output for one distinct work name.
	Resolution struct {
		Category          string
		UnitType          UnitType
		SubCategory       string
		IsReductionTarget bool
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyKeyword     = errors.New("empty keyword")
	ErrInvalidMatchType = errors.New("invalid match type")
	ErrInvalidUnitType  = errors.New("invalid unit type")
	ErrInvalidValueRank = errors.New("invalid value rank")
	ErrCategoryInUse    = errors.New("category has keyword rules attached")
	ErrNotFound         = errors.New("not found")
)

// AllowedMatchTypes lists the valid match types per rule axis. The category
// axis has no suffix matching; the unit and sub-category axes do.
var AllowedMatchTypes = map[RuleAxis][]MatchType{
	AxisCategory:    {MatchContains, MatchExact, MatchStartsWith},
	AxisUnitType:    {MatchSuffix, MatchContains, MatchExact},
	AxisSubCategory: {MatchSuffix, MatchContains, MatchExact},
}

// ValidMatchType reports whether mt is allowed on the given axis.
func ValidMatchType(axis RuleAxis, mt MatchType) bool {
	for _, allowed := range AllowedMatchTypes[axis] {
		if mt == allowed {
			return true
		}
	}
	return false
}

// Suffix returns the display suffix for quantities of this unit type.
func (u UnitType) Suffix() string {
	if u == UnitCount {
		return "件"
	}
	return "h"
}

func (u UnitType) Validate() error {
	switch u {
	case UnitHours, UnitCount:
		return nil
	}
	return ErrInvalidUnitType
}

func (v ValueRank) Validate() error {
	switch v {
	case RankS, RankA, RankB, RankC:
		return nil
	}
	return ErrInvalidValueRank
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	if c.ValueRank != "" {
		if err := c.ValueRank.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (k KeywordRule) Validate() error {
	if strings.TrimSpace(k.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if !ValidMatchType(AxisCategory, k.MatchType) {
		return ErrInvalidMatchType
	}
	if k.CategoryID == 0 {
		return errors.New("missing category id")
	}
	return nil
}

func (r UnitTypeRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if !ValidMatchType(AxisUnitType, r.MatchType) {
		return ErrInvalidMatchType
	}
	return r.UnitType.Validate()
}

func (r SubCategoryRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if strings.TrimSpace(r.SubCategoryName) == "" {
		return ErrEmptyName
	}
	if !ValidMatchType(AxisSubCategory, r.MatchType) {
		return ErrInvalidMatchType
	}
	return nil
}

func (r WorkRecord) Validate() error {
	if r.WorkDate.IsZero() {
		return errors.New("work date cannot be zero")
	}
	if len(r.WorkName) > 500 {
		return errors.New("work name too long (max 500 characters)")
	}
	return nil
}

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

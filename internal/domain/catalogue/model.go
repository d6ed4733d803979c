// Package catalogue owns the per-category component tree and the derived
// set of generated product codes with their lifecycle state.
package catalogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
)

// Category is a top-level product classification, one of A..I.
// Each category owns an independent six-level component tree.
type Category string

// Levels in a product code path.
const (
	MinLevel = 1
	MaxLevel = 6
)

// ValidCategory reports whether c is one of A..I.
func ValidCategory(c Category) bool {
	if len(c) != 1 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'I'
}

// Code lifecycle states.
const (
	CodeAvailable = "available"
	CodeUsed      = "used"
)

var (
	// componentKeyRe: a single path token. Tokens never contain dashes,
	// the dash is the path separator.
	componentKeyRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	// productCodeRe: six dash-joined tokens.
	productCodeRe = regexp.MustCompile(`^[A-Za-z0-9_]+(-[A-Za-z0-9_]+){5}$`)
)

// ValidProductCode reports whether s is a well-formed six-level code.
func ValidProductCode(s string) bool {
	return productCodeRe.MatchString(s)
}

// CategoryFromPrefix is a best-effort legacy fallback that guesses a
// category from a code prefix. The stored category_type on the code record
// is authoritative; this rule exists only for data that predates it.
func CategoryFromPrefix(productCode string) (Category, bool) {
	switch {
	case strings.HasPrefix(productCode, "HR-"):
		return "A", true
	case strings.HasPrefix(productCode, "CON-"), strings.HasPrefix(productCode, "SNT-"):
		return "B", true
	}
	return "", false
}

// ComponentNode is one building block of a category tree.
// Identity: (category, level, parent_path, component_key).
type ComponentNode struct {
	entity.Base
	Category      Category `db:"category_type" json:"category"`
	Level         int      `db:"level" json:"level"`
	ParentPath    string   `db:"parent_path" json:"parentPath"`
	ComponentKey  string   `db:"component_key" json:"componentKey"`
	ComponentName string   `db:"component_name" json:"componentName"`
	Description   string   `db:"description" json:"description"`
	IsActive      bool     `db:"is_active" json:"isActive"`
	entity.Audit
}

// TableName returns the storage table.
func (ComponentNode) TableName() string { return "catalogue_component" }

// Path returns the node's full dash-joined path from level 1.
func (n *ComponentNode) Path() string {
	if n.ParentPath == "" {
		return n.ComponentKey
	}
	return n.ParentPath + "-" + n.ComponentKey
}

// Validate checks node invariants.
func (n *ComponentNode) Validate(_ context.Context) error {
	if !ValidCategory(n.Category) {
		return apperror.NewValidation("category must be a single letter A..I").
			WithDetail("category", string(n.Category))
	}
	if n.Level < MinLevel || n.Level > MaxLevel {
		return apperror.NewValidation(fmt.Sprintf("level must be between %d and %d", MinLevel, MaxLevel)).
			WithDetail("level", n.Level)
	}
	if !componentKeyRe.MatchString(n.ComponentKey) {
		return apperror.NewValidation("component key may contain only letters, digits and underscore").
			WithDetail("componentKey", n.ComponentKey)
	}
	if n.Level == MinLevel && n.ParentPath != "" {
		return apperror.NewValidation("level 1 components have no parent path")
	}
	if n.Level > MinLevel {
		if n.ParentPath == "" {
			return apperror.NewValidation("parent path is required above level 1")
		}
		if len(strings.Split(n.ParentPath, "-")) != n.Level-1 {
			return apperror.NewValidation("parent path depth does not match level").
				WithDetail("parentPath", n.ParentPath).
				WithDetail("level", n.Level)
		}
	}
	if n.ComponentName == "" {
		return apperror.NewValidation("component name is required")
	}
	return nil
}

// GeneratedCode is a realised six-level path through a category tree.
// product_code is unique across all categories.
type GeneratedCode struct {
	entity.Base
	CodeID        string  `db:"code_id" json:"codeId"`
	ProductCode   string  `db:"product_code" json:"productCode"`
	Category      Category `db:"category_type" json:"category"`
	Description   string  `db:"description" json:"description"`
	Status        string  `db:"status" json:"status"`
	ProductNameEN *string `db:"product_name_en" json:"productNameEn,omitempty"`

	// Orphaned marks a used code whose component chain was broken by a
	// later tree edit. Kept for review instead of being removed.
	Orphaned bool `db:"orphaned" json:"orphaned"`
	entity.Audit
}

// TableName returns the storage table.
func (GeneratedCode) TableName() string { return "generated_code" }

// Validate checks code invariants.
func (c *GeneratedCode) Validate(_ context.Context) error {
	if !ValidProductCode(c.ProductCode) {
		return apperror.NewValidation("product code must be six dash-joined tokens").
			WithDetail("productCode", c.ProductCode)
	}
	if !ValidCategory(c.Category) {
		return apperror.NewValidation("category must be a single letter A..I").
			WithDetail("category", string(c.Category))
	}
	if c.Status != CodeAvailable && c.Status != CodeUsed {
		return apperror.NewValidation("status must be available or used").
			WithDetail("status", c.Status)
	}
	return nil
}

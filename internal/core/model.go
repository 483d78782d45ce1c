package core

// BOMStatus is the lifecycle state of a bill of materials document.
type BOMStatus string

const (
	BOMStatusDraft       BOMStatus = "DRAFT"
	BOMStatusUnderReview BOMStatus = "UNDER_REVIEW"
	BOMStatusReleased    BOMStatus = "RELEASED"
	BOMStatusObsolete    BOMStatus = "OBSOLETE"
)

// ItemCategory classifies entries in the item master.
type ItemCategory string

const (
	CategoryRawMaterial        ItemCategory = "raw_material"
	CategoryPurchasedComponent ItemCategory = "purchased_component"
	CategorySubAssembly        ItemCategory = "sub_assembly"
	CategoryConsumable         ItemCategory = "consumable"
)

type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type ECOStatus string

const (
	ECOStatusDraft  ECOStatus = "DRAFT"
	ECOStatusPosted ECOStatus = "POSTED"
)

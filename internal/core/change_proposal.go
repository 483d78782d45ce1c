package core

// ChangeStep is a single structural or cost edit within a change proposal.
// Which fields apply depends on Action; the rest stay empty.
type ChangeStep struct {
	Action   string `json:"action" jsonschema_description:"One of: add_component, add_sub_assembly, update_component, remove_component, add_alternative, set_labor_cost, set_overhead_cost, create_revision"`
	Ref      int    `json:"ref" jsonschema_description:"The ref of the component this step targets. Use 0 for actions that create a new row or act on the whole document."`
	ItemSKU  string `json:"item_sku" jsonschema_description:"The item master SKU to place on the row, when known. Leave empty otherwise."`
	Quantity string `json:"quantity" jsonschema_description:"The quantity as a decimal string. Leave empty to keep the current value."`
	UnitCost string `json:"unit_cost" jsonschema_description:"The unit cost as a decimal string in the document currency. Leave empty to keep the current value."`
	ChildBOM string `json:"child_bom" jsonschema_description:"The BOM number a sub-assembly row should reference. Only for add_sub_assembly and update_component on assembly rows."`
	Notes    string `json:"notes" jsonschema_description:"Free-text notes, used for alternatives and revision records."`
}

// ChangeProposal is the AI-generated plan of edits against one BOM. Steps
// apply in order; the cost roll-up runs after each one.
type ChangeProposal struct {
	CompanyCode string       `json:"company_code" jsonschema_description:"The code identifying the company the BOM belongs to"`
	BOMNumber   string       `json:"bom_number" jsonschema_description:"The BOM number the proposed edits apply to"`
	Summary     string       `json:"summary" jsonschema_description:"A brief summary of the engineering change"`
	Confidence  float64      `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning   string       `json:"reasoning" jsonschema_description:"Explanation for the proposed edits"`
	Steps       []ChangeStep `json:"steps" jsonschema_description:"Ordered list of edits to apply to the BOM"`
}

// ChangeClarification is returned by the AI when the request is ambiguous or
// missing critical information.
type ChangeClarification struct {
	Message string `json:"message" jsonschema_description:"A message asking the user for missing details (e.g., 'Which component should the alternative be attached to?')."`
}

// ChangeResponse wraps the AI output to handle branching between a valid
// ChangeProposal or a ChangeClarification. The AI must return exactly one.
type ChangeResponse struct {
	IsClarificationRequest bool                 `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if you lack enough information to propose a confident change set."`
	Clarification          *ChangeClarification `json:"clarification,omitempty" jsonschema_description:"Required if is_clarification_request is true."`
	Proposal               *ChangeProposal      `json:"proposal,omitempty" jsonschema_description:"Required if is_clarification_request is false."`
}

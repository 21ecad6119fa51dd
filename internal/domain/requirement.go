package domain

// RequiredDocument is one entry of a funding opportunity's document list.
type RequiredDocument struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
	MaxPages *int   `json:"maxPages" yaml:"maxPages"`
}

// BudgetRules describes the budget format a mechanism expects.
type BudgetRules struct {
	DirectCostsLimit       *int   `json:"directCostsLimit,omitempty" yaml:"directCostsLimit"`
	ModularBudget          bool   `json:"modularBudget,omitempty" yaml:"modularBudget"`
	ModulesOf              int    `json:"modulesOf,omitempty" yaml:"modulesOf"`
	MaxModules             int    `json:"maxModules,omitempty" yaml:"maxModules"`
	RequiresDetailedBudget bool   `json:"requiresDetailedBudget,omitempty" yaml:"requiresDetailedBudget"`
	IndirectCosts          string `json:"indirectCosts,omitempty" yaml:"indirectCosts"`
}

// RequirementSet is the canonical view of a funding opportunity's submission rules.
type RequirementSet struct {
	OpportunityNumber   string             `json:"opportunityNumber"`
	MechanismType       string             `json:"mechanismType"`
	RequiredDocuments   []RequiredDocument `json:"requiredDocuments"`
	PageLimits          map[string]int     `json:"pageLimits"`
	FormattingRules     map[string]string  `json:"formattingRules"`
	BudgetRules         BudgetRules        `json:"budgetRules"`
	Eligibility         []string           `json:"eligibility,omitempty"`
	Deadlines           []string           `json:"deadlines,omitempty"`
	SpecialRequirements []string           `json:"specialRequirements,omitempty"`
	Note                string             `json:"note,omitempty"`
}

// RequirementResult is what the extractor hands to the compliance stage.
type RequirementResult struct {
	Number       string         `json:"number"`
	URL          string         `json:"url,omitempty"`
	Requirements RequirementSet `json:"requirements"`
	RawContent   string         `json:"rawContent,omitempty"`
}

// DocumentRef points at one request-scoped uploaded file.
type DocumentRef struct {
	Name string
	Path string
	Size int64
}

// CheckRequest is the pipeline input.
type CheckRequest struct {
	Locator             string
	RequirementDocument *DocumentRef
	Proposal            []DocumentRef
}

// Package catalog holds the static requirement tables: numbering templates,
// mechanism classification, document/page-limit profiles and the section
// keyword tables used by proposal analysis.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"GrantChecker/internal/domain"
)

//go:embed catalog.yaml
var embedded []byte

const numberPlaceholder = "{number}"

// NumberingTemplate recognizes one agency numbering scheme.
type NumberingTemplate struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	expr    *regexp.Regexp
}

// MechanismRule maps an identifier substring to a mechanism type.
type MechanismRule struct {
	Contains string `yaml:"contains"`
	Type     string `yaml:"type"`
}

// BaseProfile is shared by every mechanism.
type BaseProfile struct {
	Documents       []domain.RequiredDocument `yaml:"documents"`
	FormattingRules map[string]string         `yaml:"formattingRules"`
	BudgetRules     domain.BudgetRules        `yaml:"budgetRules"`
}

// Profile overlays the base profile for one mechanism type.
type Profile struct {
	PageLimits       map[string]int    `yaml:"pageLimits"`
	FormattingRules  map[string]string `yaml:"formattingRules"`
	DirectCostsLimit *int              `yaml:"directCostsLimit"`
}

// FallbackProfile is served when the requirement source is unreachable.
type FallbackProfile struct {
	Documents       []domain.RequiredDocument `yaml:"documents"`
	PageLimits      map[string]int            `yaml:"pageLimits"`
	FormattingRules map[string]string         `yaml:"formattingRules"`
	Note            string                    `yaml:"note"`
}

// SectionPattern lists the phrases that reveal a section.
type SectionPattern struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// FilenameRule infers a section from a file name.
type FilenameRule struct {
	Section string   `yaml:"section"`
	AnyOf   []string `yaml:"anyOf"`
	AllOf   []string `yaml:"allOf"`
}

// Catalog is immutable after Parse returns.
type Catalog struct {
	ListingURLTemplate string              `yaml:"listingUrlTemplate"`
	NumberingTemplates []NumberingTemplate `yaml:"numberingTemplates"`
	Mechanisms         []MechanismRule     `yaml:"mechanisms"`
	DefaultMechanism   string              `yaml:"defaultMechanism"`
	UnknownMechanism   string              `yaml:"unknownMechanism"`
	Base               BaseProfile         `yaml:"baseProfile"`
	Profiles           map[string]Profile  `yaml:"profiles"`
	Fallback           FallbackProfile     `yaml:"fallback"`
	Sections           []SectionPattern    `yaml:"sections"`
	FilenameKeywords   []FilenameRule      `yaml:"filenameKeywords"`
}

var loadEmbedded = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embedded)
})

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return loadEmbedded()
}

// Load reads a catalog from path, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for i := range c.NumberingTemplates {
		tpl := &c.NumberingTemplates[i]
		expr, err := regexp.Compile("(?i)" + tpl.Pattern)
		if err != nil {
			return nil, fmt.Errorf("numbering template %s: %w", tpl.Name, err)
		}
		tpl.expr = expr
	}
	for i := range c.Sections {
		lowerAll(c.Sections[i].Patterns)
	}
	for i := range c.FilenameKeywords {
		lowerAll(c.FilenameKeywords[i].AnyOf)
		lowerAll(c.FilenameKeywords[i].AllOf)
	}
	if len(c.Fallback.Documents) == 0 {
		return nil, fmt.Errorf("catalog: fallback document list is empty")
	}
	if c.ListingURLTemplate != "" && !strings.Contains(c.ListingURLTemplate, numberPlaceholder) {
		return nil, fmt.Errorf("catalog: listing template lacks %s", numberPlaceholder)
	}
	return &c, nil
}

// Canonicalize derives the opportunity number from a free-text locator.
// The first matching template wins; without a match the trimmed locator is
// returned and matched is false.
func (c *Catalog) Canonicalize(locator string) (number string, matched bool) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", false
	}
	for _, tpl := range c.NumberingTemplates {
		if tpl.expr == nil {
			continue
		}
		if m := tpl.expr.FindString(locator); m != "" {
			return strings.ToUpper(m), true
		}
	}
	return locator, false
}

// ListingURL renders the public listing address of an opportunity number.
func (c *Catalog) ListingURL(number string) string {
	if number == "" || c.ListingURLTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(c.ListingURLTemplate, numberPlaceholder, number)
}

// Classify maps an opportunity number to its mechanism type.
func (c *Catalog) Classify(number string) string {
	if number == "" {
		return c.UnknownMechanism
	}
	for _, rule := range c.Mechanisms {
		if strings.Contains(number, rule.Contains) {
			return rule.Type
		}
	}
	return c.DefaultMechanism
}

// Requirements builds the requirement set for an opportunity number from the
// base profile and the mechanism overlay. Unmatched mechanisms get empty page limits.
func (c *Catalog) Requirements(number string) domain.RequirementSet {
	mechanism := c.Classify(number)
	set := domain.RequirementSet{
		OpportunityNumber: number,
		MechanismType:     mechanism,
		RequiredDocuments: copyDocuments(c.Base.Documents),
		PageLimits:        map[string]int{},
		FormattingRules:   copyStrings(c.Base.FormattingRules),
		BudgetRules:       c.Base.BudgetRules,
	}
	set.BudgetRules.DirectCostsLimit = nil

	if profile, ok := c.Profiles[mechanism]; ok {
		for k, v := range profile.PageLimits {
			set.PageLimits[k] = v
		}
		for k, v := range profile.FormattingRules {
			set.FormattingRules[k] = v
		}
		if profile.DirectCostsLimit != nil {
			limit := *profile.DirectCostsLimit
			set.BudgetRules.DirectCostsLimit = &limit
		}
	}
	return set
}

// DefaultRequirements is the fixed, non-empty set used on extraction failure.
func (c *Catalog) DefaultRequirements(number string) domain.RequirementSet {
	return domain.RequirementSet{
		OpportunityNumber: number,
		MechanismType:     c.Classify(number),
		RequiredDocuments: copyDocuments(c.Fallback.Documents),
		PageLimits:        copyInts(c.Fallback.PageLimits),
		FormattingRules:   copyStrings(c.Fallback.FormattingRules),
		Note:              c.Fallback.Note,
	}
}

// SectionsForFilename infers sections from a file name alone.
func (c *Catalog) SectionsForFilename(name string) []domain.DetectedSection {
	lower := strings.ToLower(name)
	var out []domain.DetectedSection
	for _, rule := range c.FilenameKeywords {
		if rule.matches(lower) {
			out = append(out, domain.DetectedSection{
				Name:       rule.Section,
				Detected:   true,
				Confidence: domain.ConfidenceInferred,
			})
		}
	}
	return out
}

func (r FilenameRule) matches(lower string) bool {
	if len(r.AllOf) > 0 {
		for _, kw := range r.AllOf {
			if !strings.Contains(lower, kw) {
				return false
			}
		}
		return true
	}
	for _, kw := range r.AnyOf {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func copyDocuments(in []domain.RequiredDocument) []domain.RequiredDocument {
	out := make([]domain.RequiredDocument, len(in))
	for i, doc := range in {
		out[i] = doc
		if doc.MaxPages != nil {
			pages := *doc.MaxPages
			out[i].MaxPages = &pages
		}
	}
	return out
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func lowerAll(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProposalMetadata identifies the application.
type ProposalMetadata struct {
	Title               string `json:"title"`
	PIName              string `json:"pi_name"`
	PIInstitution       string `json:"pi_institution"`
	ExtractionTimestamp string `json:"extraction_timestamp,omitempty"`
}

// FoundDocument is a document the analysis located in the package.
type FoundDocument struct {
	Name      string     `json:"name"`
	Status    string     `json:"status,omitempty"`
	Pages     FlexInt    `json:"pages"`
	Compliant FlexBool   `json:"compliant"`
	Notes     FlexString `json:"notes,omitempty"`
}

// MissingDocumentEntry is a document the analysis expected but did not find.
type MissingDocumentEntry struct {
	Name     string     `json:"name"`
	Severity string     `json:"severity"`
	Note     FlexString `json:"note,omitempty"`
}

// DocumentInventory splits the package into found and missing documents.
type DocumentInventory struct {
	FoundDocuments   []FoundDocument        `json:"found_documents"`
	MissingDocuments []MissingDocumentEntry `json:"missing_documents"`
}

// Page-limit statuses reported by the analysis.
const (
	PageStatusCompliant = "compliant"
	PageStatusExceeded  = "exceeded"
)

// PageLimitEntry is the page-limit verdict for one section.
type PageLimitEntry struct {
	Section string  `json:"-"`
	Found   FlexInt `json:"found"`
	Allowed FlexInt `json:"allowed"`
	Status  string  `json:"status"`
}

// PageLimitCompliance keeps the section order of the JSON object it was
// decoded from so that rule evaluation is deterministic.
type PageLimitCompliance []PageLimitEntry

func (p *PageLimitCompliance) UnmarshalJSON(data []byte) error {
	*p = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("page limits: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("page limits: expected object, got %v", tok)
	}

	var out PageLimitCompliance
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("page limits: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("page limits %s: %w", key, err)
		}
		var entry PageLimitEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		entry.Section = key
		out = append(out, entry)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("page limits: %w", err)
	}
	*p = out
	return nil
}

func (p PageLimitCompliance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Section)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the entry for a section.
func (p PageLimitCompliance) Lookup(section string) (PageLimitEntry, bool) {
	for _, entry := range p {
		if entry.Section == section {
			return entry, true
		}
	}
	return PageLimitEntry{}, false
}

// ContentSection flags whether a narrative section is present.
type ContentSection struct {
	Present      FlexBool   `json:"present"`
	PageEstimate FlexString `json:"page_estimate,omitempty"`
}

// UnmarshalJSON also accepts a bare flag such as `"timeline": false`.
func (c *ContentSection) UnmarshalJSON(data []byte) error {
	*c = ContentSection{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		type plain ContentSection
		return json.Unmarshal(trimmed, (*plain)(c))
	}
	return c.Present.UnmarshalJSON(data)
}

// Letter-of-support markers used by the analysis schema.
const (
	LetterFound    = "FOUND"
	LetterNotFound = "NOT FOUND"
)

// Collaborator is a named collaborator and whether their letter was found.
type Collaborator struct {
	Name            string `json:"name"`
	Institution     string `json:"institution"`
	Role            string `json:"role,omitempty"`
	LetterOfSupport string `json:"letter_of_support"`
}

// CollaborationDetection lists collaborators mentioned in the narrative.
type CollaborationDetection struct {
	Collaborators []Collaborator `json:"collaborators_mentioned"`
}

// BudgetTotals holds the dollar figures the analysis could extract.
type BudgetTotals struct {
	DirectCostsYear1 *FlexInt `json:"direct_costs_year1"`
	TotalProject     *FlexInt `json:"total_project"`
}

// BudgetAnalysis describes the budget documents found.
type BudgetAnalysis struct {
	Type                        string       `json:"type,omitempty"`
	BudgetDetected              FlexBool     `json:"budget_detected"`
	BudgetJustificationDetected FlexBool     `json:"budget_justification_detected"`
	ExtractedTotals             BudgetTotals `json:"extracted_totals"`
}

// HumanSubjects flags human-subjects research.
type HumanSubjects struct {
	Involved     FlexBool `json:"involved"`
	IRBMentioned FlexBool `json:"irb_mentioned"`
}

// VertebrateAnimals flags animal research.
type VertebrateAnimals struct {
	Involved       FlexBool `json:"involved"`
	IACUCMentioned FlexBool `json:"iacuc_mentioned"`
}

// SubjectsAndAnimals groups the research-subject flags.
type SubjectsAndAnimals struct {
	HumanSubjects     HumanSubjects     `json:"human_subjects"`
	VertebrateAnimals VertebrateAnimals `json:"vertebrate_animals"`
}

// FormattingAnalysis is the model's self-assessment of formatting.
type FormattingAnalysis struct {
	EstimatedFont    string     `json:"estimated_font,omitempty"`
	AppearsCompliant FlexBool   `json:"appears_compliant"`
	Notes            FlexString `json:"notes,omitempty"`
}

// Section confidence labels.
const (
	ConfidenceHigh     = "high"
	ConfidenceInferred = "inferred"
)

// DetectedSection is a section located by deterministic detection.
type DetectedSection struct {
	Name         string     `json:"name"`
	Detected     bool       `json:"detected"`
	Confidence   string     `json:"confidence,omitempty"`
	FromHeader   bool       `json:"fromHeader,omitempty"`
	PageEstimate FlexString `json:"page_estimate,omitempty"`
}

// ProposalAnalysis is the structured view of a submitted package.
type ProposalAnalysis struct {
	Metadata            ProposalMetadata          `json:"proposal_metadata"`
	Inventory           DocumentInventory         `json:"document_inventory"`
	PageLimitCompliance PageLimitCompliance       `json:"page_limit_compliance"`
	ContentMapping      map[string]ContentSection `json:"content_mapping,omitempty"`
	Collaboration       CollaborationDetection    `json:"collaboration_detection"`
	Budget              BudgetAnalysis            `json:"budget_analysis"`
	Subjects            SubjectsAndAnimals        `json:"human_subjects_vertebrate_animals"`
	Formatting          FormattingAnalysis        `json:"formatting_analysis"`
	Sections            []DetectedSection         `json:"sections"`
	TotalPages          int                       `json:"totalPages"`
	Error               string                    `json:"error,omitempty"`
	Raw                 string                    `json:"raw,omitempty"`
}

// ContentBlock is one typed block returned by the document parser.
type ContentBlock struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ParsedDocument is the per-file output of the document parser or its fallback.
type ParsedDocument struct {
	Name      string
	PageCount int
	Text      string
	Blocks    []ContentBlock
	Sections  []DetectedSection
	Estimated bool
}

// EstimatePages approximates a page count from a file size; never below 1.
func EstimatePages(size, bytesPerPage int64) int {
	if bytesPerPage <= 0 || size <= 0 {
		return 1
	}
	pages := (size + bytesPerPage - 1) / bytesPerPage
	if pages < 1 {
		return 1
	}
	return int(pages)
}

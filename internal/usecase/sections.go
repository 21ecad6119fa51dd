package usecase

import (
	"strings"

	"GrantChecker/internal/catalog"
	"GrantChecker/internal/domain"
)

const headerBlockType = "Header"

// DetectSections finds catalog sections in the concatenated text, then in
// header blocks for sections the text pass missed. Both passes report
// confidence "high".
func DetectSections(table []catalog.SectionPattern, text string, blocks []domain.ContentBlock) []domain.DetectedSection {
	lower := strings.ToLower(text)
	found := map[string]bool{}
	sections := []domain.DetectedSection{}

	for _, entry := range table {
		for _, pattern := range entry.Patterns {
			if !strings.Contains(lower, pattern) {
				continue
			}
			if !found[entry.Name] {
				found[entry.Name] = true
				sections = append(sections, domain.DetectedSection{
					Name:       entry.Name,
					Detected:   true,
					Confidence: domain.ConfidenceHigh,
				})
			}
			break
		}
	}

	for _, block := range blocks {
		if block.Type != headerBlockType || block.Content == "" {
			continue
		}
		header := strings.ToLower(block.Content)
		for _, entry := range table {
			if found[entry.Name] || !containsAny(header, entry.Patterns) {
				continue
			}
			found[entry.Name] = true
			sections = append(sections, domain.DetectedSection{
				Name:       entry.Name,
				Detected:   true,
				Confidence: domain.ConfidenceHigh,
				FromHeader: true,
			})
		}
	}

	return sections
}

// mergeSections appends extra sections whose names are not present yet.
func mergeSections(sections []domain.DetectedSection, extra []domain.DetectedSection) []domain.DetectedSection {
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		seen[s.Name] = true
	}
	for _, s := range extra {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		sections = append(sections, s)
	}
	return sections
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

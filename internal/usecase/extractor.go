package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"GrantChecker/internal/catalog"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
)

var (
	pageLimitPhrase = regexp.MustCompile(`(?i)(\d+)\s*pages?\s*(?:limit|maximum)`)
	deadlinePhrase  = regexp.MustCompile(`(?i)deadlines?[:\s]+([A-Za-z]+\s+\d{1,2},?\s+\d{4})`)
)

// RequirementExtractor resolves a funding opportunity into its requirement set.
type RequirementExtractor struct {
	catalog  *catalog.Catalog
	source   ports.RequirementSource
	rawChars int
	logger   *slog.Logger
}

var _ ports.RequirementExtractor = (*RequirementExtractor)(nil)

// NewRequirementExtractor wires the catalog and the content source. A nil
// source makes every extraction fall back to the default requirement set.
func NewRequirementExtractor(cat *catalog.Catalog, src ports.RequirementSource, rawChars int, logger *slog.Logger) *RequirementExtractor {
	return &RequirementExtractor{
		catalog:  cat,
		source:   src,
		rawChars: rawChars,
		logger:   orDiscard(logger),
	}
}

// Extract never fails: unreachable sources produce the catalog's default set
// tagged as a fallback.
func (e *RequirementExtractor) Extract(ctx context.Context, locator string, doc *domain.DocumentRef) domain.Outcome[domain.RequirementResult] {
	locator = strings.TrimSpace(locator)
	number, matched := e.catalog.Canonicalize(locator)
	listingURL := e.listingURL(locator, number, matched)

	if locator == "" && doc == nil {
		return e.fallback(number, listingURL, domain.ErrNoRequirementSource)
	}
	if e.source == nil {
		return e.fallback(number, listingURL, errors.New("requirement source is not configured"))
	}

	e.logger.Info("extracting requirements", "number", number, "url", listingURL, "document", docName(doc))

	content, err := e.source.Resolve(ctx, source.Request{URL: listingURL, Document: doc})
	if err != nil {
		return e.fallback(number, listingURL, err)
	}

	if number == "" {
		if found, ok := e.catalog.Canonicalize(content.Text); ok {
			number = found
		}
	}

	set := e.catalog.Requirements(number)
	scanAuxiliaryNotes(content.Text, &set)

	raw, _ := truncateRunes(content.Text, e.rawChars)
	e.logger.Info("requirements extracted",
		"number", number,
		"mechanism", set.MechanismType,
		"documents", len(set.RequiredDocuments),
		"origin", content.Origin)

	return domain.Ok(domain.RequirementResult{
		Number:       number,
		URL:          listingURL,
		Requirements: set,
		RawContent:   raw,
	})
}

func (e *RequirementExtractor) listingURL(locator, number string, matched bool) string {
	if locator == "" {
		return ""
	}
	if !matched && isAbsoluteURL(locator) {
		return locator
	}
	return e.catalog.ListingURL(number)
}

func (e *RequirementExtractor) fallback(number, listingURL string, reason error) domain.Outcome[domain.RequirementResult] {
	e.logger.Warn("requirement extraction fell back to defaults", "number", number, "error", reason)
	return domain.Fallback(domain.RequirementResult{
		Number:       number,
		URL:          listingURL,
		Requirements: e.catalog.DefaultRequirements(number),
	}, fmt.Errorf("extract requirements: %w", reason))
}

// scanAuxiliaryNotes records page-limit and deadline phrases found in the
// fetched text. They never override catalog values.
func scanAuxiliaryNotes(text string, set *domain.RequirementSet) {
	if text == "" {
		return
	}
	if pages := pageLimitPhrase.FindAllString(text, -1); len(pages) > 0 {
		set.SpecialRequirements = append(set.SpecialRequirements,
			"Page limits found in FOA: "+strings.Join(pages, ", "))
	}
	if deadlines := deadlinePhrase.FindAllString(text, -1); len(deadlines) > 0 {
		set.Deadlines = append(set.Deadlines, deadlines...)
	}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func docName(doc *domain.DocumentRef) string {
	if doc == nil {
		return ""
	}
	return doc.Name
}

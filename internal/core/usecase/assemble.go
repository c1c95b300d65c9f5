package usecase

import (
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

// pageSeparator joins per-page content in the assembled document text.
const pageSeparator = "\n\n"

// AssemblePages concatenates page content into one document text and records
// the offset range each page occupies. A page's range includes its trailing
// separator, so ranges are contiguous: range n ends where range n+1 starts
// and together they tile [0, len(text)).
func AssemblePages(pages []domain.PageRecord) (string, []domain.PageRange) {
	var b strings.Builder
	ranges := make([]domain.PageRange, 0, len(pages))
	for i, page := range pages {
		start := b.Len()
		b.WriteString(page.Content)
		if i < len(pages)-1 {
			b.WriteString(pageSeparator)
		}
		ranges = append(ranges, domain.PageRange{
			Page:  page.PageNumber,
			Start: start,
			End:   b.Len(),
		})
	}
	return b.String(), ranges
}

// PageForOffset returns the page whose range contains offset. Offsets past
// the last range clamp to the last page; offsets are always derived from
// substrings of the assembled text, so the clamp only absorbs boundary
// arithmetic. Returns 0 when there are no ranges.
func PageForOffset(ranges []domain.PageRange, offset int) int {
	if len(ranges) == 0 {
		return 0
	}
	for _, r := range ranges {
		if r.Start <= offset && offset < r.End {
			return r.Page
		}
	}
	return ranges[len(ranges)-1].Page
}

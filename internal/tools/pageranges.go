package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// PageRange is a single 1-based inclusive [Start, End] range as given
// in the split pageRange option (spec.md §4.3).
type PageRange struct {
	Start int
	End   int
}

// ParsePageRanges parses a comma-separated pageRange expression against
// a known page count. Ranges must be strictly ascending and
// non-overlapping; a bare N is shorthand for N-N.
func ParsePageRanges(expr string, pageCount int) ([]PageRange, error) {
	segments := strings.Split(expr, ",")
	ranges := make([]PageRange, 0, len(segments))
	lastEnd := 0

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, invalidRange("empty range segment")
		}

		start, end, err := parseSingleRange(seg, pageCount)
		if err != nil {
			return nil, err
		}
		if start <= lastEnd {
			return nil, invalidRange("ranges must be strictly ascending")
		}
		lastEnd = end

		ranges = append(ranges, PageRange{Start: start, End: end})
	}

	if len(ranges) == 0 {
		return nil, invalidRange("no page ranges given")
	}
	return ranges, nil
}

func parseSingleRange(seg string, pageCount int) (int, int, error) {
	if strings.Contains(seg, "-") {
		parts := strings.SplitN(seg, "-", 2)
		start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, invalidRange(fmt.Sprintf("range start %q is not a number", parts[0]))
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, invalidRange(fmt.Sprintf("range end %q is not a number", parts[1]))
		}
		if start < 1 || end < start || end > pageCount {
			return 0, 0, invalidRange(fmt.Sprintf("range %d-%d is out of bounds for a %d-page document", start, end, pageCount))
		}
		return start, end, nil
	}

	page, err := strconv.Atoi(seg)
	if err != nil {
		return 0, 0, invalidRange(fmt.Sprintf("page %q is not a number", seg))
	}
	if page < 1 || page > pageCount {
		return 0, 0, invalidRange(fmt.Sprintf("page %d is out of bounds for a %d-page document", page, pageCount))
	}
	return page, page, nil
}

func invalidRange(msg string) error {
	return apierr.New(apierr.CodeInvalidInput, "invalid page range: "+msg, nil)
}

// PageSelection renders a range as pdfcpu's selectedPages argument:
// one page number string per page from Start to End.
func (r PageRange) PageSelection() []string {
	pages := make([]string, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		pages = append(pages, strconv.Itoa(p))
	}
	return pages
}

// SplitPartName is the naming rule from spec.md §4.3: a single page
// uses split_page_N, a multi-page range uses pages_N-M.
func (r PageRange) SplitPartName() string {
	if r.Start == r.End {
		return fmt.Sprintf("split_page_%d.pdf", r.Start)
	}
	return fmt.Sprintf("pages_%d-%d.pdf", r.Start, r.End)
}

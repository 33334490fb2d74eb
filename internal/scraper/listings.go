package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/heyjobs/internal/models"
)

const (
	// ListingPathMarker marks an anchor as a job listing, e.g. /en/jobs/<uid>.
	ListingPathMarker = "/en/jobs/"
	// TitleClass is the class of the element inside a listing anchor that holds its title.
	TitleClass = "job-card-title"

	uidSegment = 3
	uidMaxLen  = 36
)

type FaultKind string

const (
	FaultMissingHref  FaultKind = "missing_href"
	FaultMissingTitle FaultKind = "missing_title"
	FaultEmptyField   FaultKind = "empty_field"
)

// ItemFault describes one anchor that was skipped during extraction.
type ItemFault struct {
	Index   int
	Kind    FaultKind
	Href    string
	Snippet string
}

func (f ItemFault) Error() string {
	if f.Href == "" {
		return fmt.Sprintf("anchor %d: %s", f.Index, f.Kind)
	}
	return fmt.Sprintf("anchor %d (%s): %s", f.Index, f.Href, f.Kind)
}

// Extraction is the outcome of scanning one listings page.
type Extraction struct {
	Records  []models.JobRecord
	Faults   []ItemFault
	Anchors  int
	Listings int
}

// ExtractListings parses raw HTML and returns the job records it contains,
// in document order. Malformed anchors are skipped and reported as faults;
// only input without any markup fails the whole extraction.
func ExtractListings(raw []byte) (Extraction, error) {
	doc, err := newDocument(raw)
	if err != nil {
		return Extraction{}, err
	}
	return extractFromDocument(doc), nil
}

func extractFromDocument(doc *goquery.Document) Extraction {
	var out Extraction

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		out.Anchors++

		href, ok := s.Attr("href")
		if !ok {
			out.Faults = append(out.Faults, newFault(i, FaultMissingHref, s, ""))
			return
		}
		if !strings.Contains(href, ListingPathMarker) {
			return
		}
		out.Listings++

		title := s.Find("." + TitleClass).First()
		if title.Length() == 0 {
			out.Faults = append(out.Faults, newFault(i, FaultMissingTitle, s, href))
			return
		}

		record := models.JobRecord{
			UID:   ListingUID(href),
			Title: collapseSpace(title.Text()),
		}
		if record.UID == "" || record.Title == "" {
			out.Faults = append(out.Faults, newFault(i, FaultEmptyField, s, href))
			return
		}
		out.Records = append(out.Records, record)
	})

	return out
}

// ListingUID returns the fourth "/"-separated segment of href, cut to 36
// characters. Hrefs with fewer segments yield "".
func ListingUID(href string) string {
	parts := strings.Split(href, "/")
	if len(parts) <= uidSegment {
		return ""
	}
	uid, _ := cutRunes(parts[uidSegment], uidMaxLen)
	return uid
}

func newFault(index int, kind FaultKind, s *goquery.Selection, href string) ItemFault {
	snippet, _ := goquery.OuterHtml(s)
	return ItemFault{
		Index:   index,
		Kind:    kind,
		Href:    href,
		Snippet: truncate(cleanText(snippet), 120),
	}
}

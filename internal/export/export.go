package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/heyjobs/internal/models"
	"github.com/jimezsa/heyjobs/internal/scraper"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

const linkColor = "#87CEEB"

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	// BaseURL is the page the records were scraped from; listing links are
	// resolved against it. Empty disables links.
	BaseURL string
}

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q", value)
	}
}

func WriteRecords(w io.Writer, records []models.JobRecord, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return writeCSV(w, records, ',', opts)
	case FormatTSV:
		return writeCSV(w, records, '\t', opts)
	case FormatMarkdown:
		return writeMarkdown(w, records, opts)
	default:
		return writeTable(w, records, opts)
	}
}

// ListingURL returns the absolute link of a listing relative to base.
func ListingURL(base string, uid string) string {
	if strings.TrimSpace(base) == "" || strings.TrimSpace(uid) == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	ref := &url.URL{Path: scraper.ListingPathMarker + url.PathEscape(uid)}
	return baseURL.ResolveReference(ref).String()
}

func writeJSON(w io.Writer, records []models.JobRecord) error {
	if records == nil {
		records = []models.JobRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeCSV(w io.Writer, records []models.JobRecord, delim rune, opts WriteOptions) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write([]string{"id", "uid", "title", "url"}); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			idString(record.ID),
			record.UID,
			record.Title,
			ListingURL(opts.BaseURL, record.UID),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, records []models.JobRecord, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tuid\ttitle\turl")
	output := termenv.NewOutput(w)
	for _, record := range records {
		fmt.Fprintln(tw, strings.Join([]string{
			orDash(idString(record.ID)),
			record.UID,
			safe(record.Title),
			displayLink(ListingURL(opts.BaseURL, record.UID), output, opts),
		}, "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, records []models.JobRecord, opts WriteOptions) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, record := range records {
		line := fmt.Sprintf("- **%s** `%s`", safe(record.Title), record.UID)
		if link := ListingURL(opts.BaseURL, record.UID); link != "" {
			line += fmt.Sprintf(" [Open listing](<%s>)", link)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func displayLink(link string, output *termenv.Output, opts WriteOptions) string {
	if link == "" {
		return "-"
	}
	text := link
	if opts.ColorEnabled {
		text = output.String(text).Foreground(output.Color(linkColor)).String()
	}
	if opts.Hyperlinks {
		text = hyperlink(link, text)
	}
	return text
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

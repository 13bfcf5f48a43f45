package news

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ISOLayout matches the millisecond UTC timestamps the news service expects.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FilterSet is the immutable query a feed is built from. The zero value
// means "top stories, no restrictions".
type FilterSet struct {
	Keyword         string     `json:"keyword,omitempty"`
	Topic           Topic      `json:"topic,omitempty"`
	Location        string     `json:"location,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	ExcludeWebsites []string   `json:"exclude_websites,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterSet) IsZero() bool {
	return f.Equal(FilterSet{})
}

// Equal compares two filter sets structurally. Dates compare by instant and
// excluded websites compare in order.
func (f FilterSet) Equal(other FilterSet) bool {
	return f.Keyword == other.Keyword &&
		f.Topic == other.Topic &&
		f.Location == other.Location &&
		sameInstant(f.StartDate, other.StartDate) &&
		sameInstant(f.EndDate, other.EndDate) &&
		slices.Equal(f.ExcludeWebsites, other.ExcludeWebsites)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Clone returns a deep copy that shares no memory with f.
func (f FilterSet) Clone() FilterSet {
	out := f
	if f.StartDate != nil {
		t := *f.StartDate
		out.StartDate = &t
	}
	if f.EndDate != nil {
		t := *f.EndDate
		out.EndDate = &t
	}
	if f.ExcludeWebsites != nil {
		out.ExcludeWebsites = slices.Clone(f.ExcludeWebsites)
	}
	return out
}

// Normalize trims text fields and lower-cases excluded domains, dropping
// empty entries.
func (f FilterSet) Normalize() FilterSet {
	out := f.Clone()
	out.Keyword = strings.TrimSpace(out.Keyword)
	out.Location = strings.TrimSpace(out.Location)
	var sites []string
	for _, s := range out.ExcludeWebsites {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sites = append(sites, s)
		}
	}
	out.ExcludeWebsites = sites
	return out
}

// Validate reports filter combinations the news service will reject.
func (f FilterSet) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return fmt.Errorf("start date %s is after end date %s",
			f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly))
	}
	return nil
}

// Query encodes the filters as the service's query parameters. Every key is
// present; unset filters are sent as empty strings.
func (f FilterSet) Query() url.Values {
	q := url.Values{}
	q.Set("keyword", f.Keyword)
	q.Set("topic", string(f.Topic))
	q.Set("location", f.Location)
	q.Set("startDate", formatISO(f.StartDate))
	q.Set("endDate", formatISO(f.EndDate))
	q.Set("excludeWebsites", strings.Join(f.ExcludeWebsites, ","))
	return q
}

func formatISO(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(ISOLayout)
}

// Excludes reports whether rawURL belongs to one of the excluded websites,
// including their subdomains.
func (f FilterSet) Excludes(rawURL string) bool {
	if len(f.ExcludeWebsites) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, site := range f.ExcludeWebsites {
		site = strings.TrimPrefix(strings.ToLower(site), "www.")
		if host == site || strings.HasSuffix(host, "."+site) {
			return true
		}
	}
	return false
}

// InRange reports whether t falls inside the optional date window. The end
// date is inclusive of its whole day when it carries no time of day.
func (f FilterSet) InRange(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if f.StartDate != nil && t.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil {
		end := *f.EndDate
		if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
			end = end.Add(24 * time.Hour)
		}
		if !t.Before(end) {
			return false
		}
	}
	return true
}

// Describe renders a short summary for status lines.
func (f FilterSet) Describe() string {
	var parts []string
	if f.Topic != TopicAll {
		parts = append(parts, "topic:"+f.Topic.Label())
	}
	if f.Keyword != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Keyword))
	}
	if f.Location != "" {
		parts = append(parts, "in:"+f.Location)
	}
	if f.StartDate != nil {
		parts = append(parts, "from:"+f.StartDate.Format(time.DateOnly))
	}
	if f.EndDate != nil {
		parts = append(parts, "to:"+f.EndDate.Format(time.DateOnly))
	}
	if n := len(f.ExcludeWebsites); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d sites", n))
	}
	if len(parts) == 0 {
		return "top stories"
	}
	return strings.Join(parts, " ")
}

// ParseDate parses a YYYY-MM-DD or RFC 3339 date. Blank input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, ISOLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}

// FormatDate is the inverse of ParseDate for form fields.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

// ParseExcludeWebsites splits a comma separated domain list.
func ParseExcludeWebsites(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

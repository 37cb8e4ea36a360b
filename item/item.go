package item

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// handlePattern matches the numeric item or collection id in a repository
// handle path such as /riuff/handle/1/13580.
var handlePattern = regexp.MustCompile(`/handle/\d+/(\d+)`)

// HandleID returns the id segment of a handle URL or path. The second return
// value is false if the URL does not contain a handle.
func HandleID(u string) (string, bool) {
	m := handlePattern.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Collection is a named top-level grouping of items with its own listing
// entry point.
type Collection struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Items       []Record `json:"items" yaml:"-"`
}

// ID returns the handle id of the collection.
func (c Collection) ID() (string, error) {
	id, ok := HandleID(c.URL)
	if !ok {
		return "", fmt.Errorf("collection %q: no handle id in URL %q", c.Name, c.URL)
	}
	return id, nil
}

// RecentSubmissionsURL returns the first listing page of the collection.
func (c Collection) RecentSubmissionsURL() string {
	return strings.TrimSuffix(c.URL, "/") + "/recent-submissions"
}

// Stub holds the identifying data of an item as captured from one row of a
// listing page.
type Stub struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Author                string `json:"author"`
	URL                   string `json:"url"`
	CollectionID          string `json:"collection_id"`
	CollectionName        string `json:"collection_name"`
	CollectionDescription string `json:"collection_description"`
	CollectionURL         string `json:"collection_url"`
}

// Record is the enriched bibliographic record of an item. Scalar attributes
// are nil unless the detail page carried the field. Repeatable attributes are
// always non-nil slices so they serialize as JSON arrays.
type Record struct {
	Stub

	DateAvailable       *string `json:"date_available,omitempty"`
	DateIssued          *string `json:"date_issued,omitempty"`
	Citation            *string `json:"citation,omitempty"`
	Abstract            *string `json:"abstract,omitempty"`
	LanguageISO         *string `json:"language_iso,omitempty"`
	Rights              *string `json:"rights,omitempty"`
	DegreeLevel         *string `json:"degree_level,omitempty"`
	DegreeGrantor       *string `json:"degree_grantor,omitempty"`
	DegreeDepartment    *string `json:"degree_department,omitempty"`
	DegreeDate          *string `json:"degree_date,omitempty"`
	DegreeLocal         *string `json:"degree_local,omitempty"`
	DegreeProgram       *string `json:"degree_program,omitempty"`
	Vinculation         *string `json:"vinculation,omitempty"`
	Sponsorship         *string `json:"sponsorship,omitempty"`
	Advisor             *string `json:"advisor,omitempty"`
	RightsLicense       *string `json:"rights_license,omitempty"`
	PhysicalDescription *string `json:"physical_description,omitempty"`

	Keywords           []string `json:"keywords"`
	AdditionalKeywords []string `json:"additional_keywords"`
	Descriptors        []string `json:"descriptors"`
	CoAdvisors         []string `json:"co_advisors"`
	BoardMembers       []string `json:"board_members"`

	DocumentURL      string `json:"document_url"`
	DocumentFileName string `json:"document_file_name"`
	DocumentFileSize string `json:"document_file_size"`
}

// NewRecord creates a record for the given stub with every repeatable
// attribute initialized to an empty list.
func NewRecord(stub Stub) *Record {
	r := &Record{Stub: stub}
	r.Normalize()
	return r
}

// Normalize replaces nil repeatable attributes with empty lists.
func (r *Record) Normalize() {
	for _, list := range []*[]string{
		&r.Keywords,
		&r.AdditionalKeywords,
		&r.Descriptors,
		&r.CoAdvisors,
		&r.BoardMembers,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// DegreeYear parses the degree date as a year. Only the leading digits are
// considered, so "2019-03-01" yields 2019. ok is false when the record has no
// degree date or it does not start with a number.
func (r *Record) DegreeYear() (year int, ok bool) {
	if r.DegreeDate == nil {
		return 0, false
	}
	return LeadingInt(*r.DegreeDate)
}

// LeadingInt parses the integer prefix of s after leading whitespace and an
// optional sign.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

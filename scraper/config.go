package scraper

// Selectors describes where the crawler finds things in the repository's
// markup. The defaults match the DSpace XMLUI theme used by RIUFF.
type Selectors struct {
	Listing ListSelectors   `yaml:"listing"`
	Detail  DetailSelectors `yaml:"detail"`
}

// ListSelectors locate item rows and the pagination link on a listing page.
type ListSelectors struct {
	ItemSelector   string `yaml:"item_selector"`
	LinkSelector   string `yaml:"link_selector"`
	AuthorSelector string `yaml:"author_selector"`
	NextSelector   string `yaml:"next_selector"`
	// DetailQuery is appended to every item link to request the full
	// metadata view.
	DetailQuery string `yaml:"detail_query"`
}

// DetailSelectors locate the metadata table and the file region of a detail
// page.
type DetailSelectors struct {
	RowSelector   string `yaml:"row_selector"`
	KeySelector   string `yaml:"key_selector"`
	ValueSelector string `yaml:"value_selector"`
	FileSelector  string `yaml:"file_selector"`
	// FileMetaSelector matches the definition values of the file region; the
	// first is the file name and the second the file size.
	FileMetaSelector string `yaml:"file_meta_selector"`
}

// DefaultSelectors returns the selectors for the stock DSpace layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing: ListSelectors{
			ItemSelector:   "ul.ds-artifact-list li.ds-artifact-item",
			LinkSelector:   ".artifact-title a",
			AuthorSelector: ".artifact-info .author span",
			NextSelector:   "ul.pagination li.next a.next-page-link",
			DetailQuery:    "?show=full",
		},
		Detail: DetailSelectors{
			RowSelector:      "table.detailtable tbody tr",
			KeySelector:      "td.metadata-key",
			ValueSelector:    "td.metadata-field",
			FileSelector:     ".file-wrapper",
			FileMetaSelector: ".file-metadata dd",
		},
	}
}

// WithDefaults fills every empty selector from DefaultSelectors, so a
// configuration file only has to name the selectors it changes.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()

	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}

	fill(&s.Listing.ItemSelector, d.Listing.ItemSelector)
	fill(&s.Listing.LinkSelector, d.Listing.LinkSelector)
	fill(&s.Listing.AuthorSelector, d.Listing.AuthorSelector)
	fill(&s.Listing.NextSelector, d.Listing.NextSelector)
	fill(&s.Listing.DetailQuery, d.Listing.DetailQuery)
	fill(&s.Detail.RowSelector, d.Detail.RowSelector)
	fill(&s.Detail.KeySelector, d.Detail.KeySelector)
	fill(&s.Detail.ValueSelector, d.Detail.ValueSelector)
	fill(&s.Detail.FileSelector, d.Detail.FileSelector)
	fill(&s.Detail.FileMetaSelector, d.Detail.FileMetaSelector)

	return s
}

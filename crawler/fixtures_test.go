package crawler

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pevans/riuff/cache"
	"github.com/stretchr/testify/require"
)

// listingRow is one item row on a fixture listing page.
type listingRow struct {
	ID     string
	Title  string
	Author string
	// Href overrides the generated item link
	Href string
}

// listingHTML renders a DSpace recent-submissions page. An empty next omits
// the pagination link.
func listingHTML(next string, rows ...listingRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="ds-body"><ul class="ds-artifact-list">`)
	for _, r := range rows {
		href := r.Href
		if href == "" {
			href = "/riuff/handle/1/" + r.ID
		}
		fmt.Fprintf(&b, `
<li class="ds-artifact-item odd">
  <div class="artifact-description">
    <div class="artifact-title"><a href="%s">%s</a></div>
    <div class="artifact-info"><span class="author h4"><small><span>%s</span></small></span></div>
  </div>
</li>`, html.EscapeString(href), html.EscapeString(r.Title), html.EscapeString(r.Author))
	}
	b.WriteString(`</ul>`)
	if next != "" {
		fmt.Fprintf(&b, `<ul class="pagination"><li class="previous"><a href="#">Anterior</a></li><li class="next"><a class="next-page-link" href="%s">Próximo</a></li></ul>`, html.EscapeString(next))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// field is one row of a fixture metadata table.
type field struct {
	Key   string
	Value string
}

// fileInfo is the document region of a fixture detail page.
type fileInfo struct {
	Href string
	Name string
	Size string
}

// detailHTML renders a DSpace full metadata page.
func detailHTML(fields []field, file *fileInfo) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="ds-includeSet-table detailtable"><tbody>`)
	for _, f := range fields {
		fmt.Fprintf(&b, `
<tr class="ds-table-row">
  <td class="label-cell metadata-key" title="%s">%s</td>
  <td class="word-break metadata-field">  %s  </td>
  <td class="metadata-lang">pt_BR</td>
</tr>`, html.EscapeString(f.Key), html.EscapeString(f.Key), html.EscapeString(f.Value))
	}
	b.WriteString(`</tbody></table>`)
	if file != nil {
		fmt.Fprintf(&b, `
<div class="file-list"><div class="file-wrapper row">
  <div class="thumbnail-wrapper"><a class="image-link" href="%s"><img alt="Thumbnail"/></a></div>
  <div class="file-metadata">
    <dl><dt>Nome:</dt><dd> %s </dd><dt>Tamanho:</dt><dd>%s</dd><dt>Formato:</dt><dd>PDF</dd></dl>
  </div>
</div></div>`, html.EscapeString(file.Href), html.EscapeString(file.Name), html.EscapeString(file.Size))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// degreePage renders a detail page that only carries a degree date.
func degreePage(title, date string) string {
	return detailHTML([]field{
		{"dc.title[pt_BR]", title},
		{"dc.degree.date[pt_BR]", date},
	}, nil)
}

// fakeRepository serves fixture pages keyed by path plus query and counts
// the requests for each.
type fakeRepository struct {
	server *httptest.Server

	mu    sync.Mutex
	pages map[string]string
	codes map[string]int
	hits  map[string]int
	order []string
}

func newFakeRepository(t *testing.T) *fakeRepository {
	repo := &fakeRepository{
		pages: make(map[string]string),
		codes: make(map[string]int),
		hits:  make(map[string]int),
	}
	repo.server = httptest.NewServer(http.HandlerFunc(repo.handle))
	t.Cleanup(repo.server.Close)
	return repo
}

func (fr *fakeRepository) handle(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	fr.mu.Lock()
	fr.hits[key]++
	fr.order = append(fr.order, key)
	body, ok := fr.pages[key]
	code := fr.codes[key]
	fr.mu.Unlock()

	if code != 0 {
		w.WriteHeader(code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, body)
}

// URL returns the absolute URL of path on the fake repository.
func (fr *fakeRepository) URL(path string) string {
	return fr.server.URL + path
}

func (fr *fakeRepository) set(path, body string) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.pages[path] = body
}

func (fr *fakeRepository) fail(path string, code int) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.codes[path] = code
}

func (fr *fakeRepository) hitsFor(path string) int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.hits[path]
}

func (fr *fakeRepository) totalHits() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return len(fr.order)
}

// setItem serves the detail page of item id.
func (fr *fakeRepository) setItem(id, body string) {
	fr.set("/riuff/handle/1/"+id+"?show=full", body)
}

// countingLimiter records every Wait without sleeping.
type countingLimiter struct {
	mu     sync.Mutex
	labels []string
}

func (cl *countingLimiter) Wait(ctx context.Context, label string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.labels = append(cl.labels, label)
	return ctx.Err()
}

func (cl *countingLimiter) count(label string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	n := 0
	for _, l := range cl.labels {
		if l == label {
			n++
		}
	}
	return n
}

func (cl *countingLimiter) total() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.labels)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestCrawler builds a crawler against repo with an in-memory cache.
func newTestCrawler(t *testing.T, repo *fakeRepository, configure func(cfg *Config)) (*Crawler, *cache.MemoryStore, *countingLimiter) {
	cfg := DefaultConfig()
	cfg.BaseURL = repo.server.URL
	cfg.Logger = discardLogger()
	if configure != nil {
		configure(cfg)
	}

	store := cache.NewMemoryStore()
	limiter := &countingLimiter{}

	c, err := New(store, limiter, cfg)
	require.NoError(t, err)
	return c, store, limiter
}

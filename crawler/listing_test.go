package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pevans/riuff/item"
	"github.com/pevans/riuff/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCollection = item.Collection{
	Name:        "TCCs (Graduação)",
	Description: "GGB - Trabalhos de Conclusão de Curso - Niterói",
	URL:         "https://app.uff.br/riuff/handle/1/13580",
}

func ids(records []item.Record) []string {
	out := []string{}
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestParseListing(t *testing.T) {
	body := listingHTML("/riuff/handle/1/13580/recent-submissions?offset=20",
		listingRow{ID: "101", Title: "  Primeiro\n trabalho ", Author: "Silva, Maria"},
		listingRow{ID: "102", Title: "Segundo", Author: "Souza, João"},
	)

	listing, err := ParseListing(parseDoc(t, body), scraper.DefaultSelectors().Listing, resolveOn("https://app.uff.br"), testCollection, "page-1")
	require.NoError(t, err)

	require.Len(t, listing.Stubs, 2)
	assert.Equal(t, item.Stub{
		ID:                    "101",
		Title:                 "Primeiro\n trabalho",
		Author:                "Silva, Maria",
		URL:                   "https://app.uff.br/riuff/handle/1/101?show=full",
		CollectionID:          "13580",
		CollectionName:        testCollection.Name,
		CollectionDescription: testCollection.Description,
		CollectionURL:         testCollection.URL,
	}, listing.Stubs[0])
	assert.Equal(t, "102", listing.Stubs[1].ID)
	assert.Equal(t, "https://app.uff.br/riuff/handle/1/13580/recent-submissions?offset=20", listing.NextURL)
}

func TestParseListing_LastPage(t *testing.T) {
	body := listingHTML("", listingRow{ID: "1", Title: "Only"})

	listing, err := ParseListing(parseDoc(t, body), scraper.DefaultSelectors().Listing, resolveOn(""), testCollection, "p")
	require.NoError(t, err)
	assert.Len(t, listing.Stubs, 1)
	assert.Empty(t, listing.NextURL)
}

func TestParseListing_Empty(t *testing.T) {
	listing, err := ParseListing(parseDoc(t, listingHTML("/next")), scraper.DefaultSelectors().Listing, resolveOn(""), testCollection, "p")
	require.NoError(t, err)
	assert.NotNil(t, listing.Stubs)
	assert.Empty(t, listing.Stubs)
}

// TestParseListing_BadItemLink verifies a row without a handle id is a
// structural error
func TestParseListing_BadItemLink(t *testing.T) {
	body := listingHTML("",
		listingRow{ID: "1", Title: "ok"},
		listingRow{Title: "broken", Href: "/riuff/browse?type=author"},
	)

	_, err := ParseListing(parseDoc(t, body), scraper.DefaultSelectors().Listing, resolveOn(""), testCollection, "page-url")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "page-url", parseErr.URL)
	assert.Contains(t, parseErr.Reason, "row 2")
}

func TestParseListing_CollectionWithoutHandle(t *testing.T) {
	bad := item.Collection{Name: "bad", URL: "https://app.uff.br/riuff"}
	_, err := ParseListing(parseDoc(t, listingHTML("")), scraper.DefaultSelectors().Listing, resolveOn(""), bad, "p")
	assert.Error(t, err)
}

func TestYearLimitReached(t *testing.T) {
	assert.False(t, yearLimitReached(2010, true, 0), "no limit never stops")
	assert.True(t, yearLimitReached(2018, true, 2019))
	assert.False(t, yearLimitReached(2019, true, 2019))
	assert.False(t, yearLimitReached(0, false, 2019), "not a number never stops")
}

// repoCollection registers a collection on repo and returns it.
func repoCollection(repo *fakeRepository, name, id string) item.Collection {
	return item.Collection{
		Name:        name,
		Description: name + " description",
		URL:         repo.URL("/riuff/handle/1/" + id),
	}
}

// servePages serves one listing page per entry of years, each holding one
// item per year, chained with next links. Item ids are prefix + page + index.
func servePages(repo *fakeRepository, collectionID, prefix string, years ...[]string) {
	for page, pageYears := range years {
		var rows []listingRow
		for i, year := range pageYears {
			id := fmt.Sprintf("%s%d%d", prefix, page+1, i+1)
			rows = append(rows, listingRow{ID: id, Title: "Item " + id})
			repo.setItem(id, degreePage("Item "+id, year))
		}

		next := ""
		if page < len(years)-1 {
			next = fmt.Sprintf("/riuff/handle/1/%s/recent-submissions?offset=%d", collectionID, (page+1)*20)
		}

		path := "/riuff/handle/1/" + collectionID + "/recent-submissions"
		if page > 0 {
			path += fmt.Sprintf("?offset=%d", page*20)
		}
		repo.set(path, listingHTML(next, rows...))
	}
}

func TestFetchPages_FollowsPagination(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2022", "2021"}, []string{"2020", "2019"}, []string{"2018"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"911", "912", "921", "922", "931"}, ids(records))
	assert.Equal(t, 3, limiter.count("fetchPage"))
	assert.Equal(t, 5, limiter.count("fetchItemDetails"))
}

// TestFetchPages_YearFilterPerItem verifies items below the limit are dropped
// regardless of whether pagination continues
func TestFetchPages_YearFilterPerItem(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2018", "2019", "2021"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, _ := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 2019)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "2019", *records[0].DegreeDate)
	assert.Equal(t, "2021", *records[1].DegreeDate)
}

// TestFetchPages_StopsOnLastItemYear verifies that only the last item of a
// page decides whether the next page is fetched
func TestFetchPages_StopsOnLastItemYear(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2021", "2015", "2020"}, []string{"2019", "2017"}, []string{"2022"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 2019)
	require.NoError(t, err)

	// Page 1 continues (last item 2020) though it holds a 2015 item; page 2
	// stops (last item 2017) but still contributes its 2019 item
	assert.Equal(t, []string{"911", "913", "921"}, ids(records))
	assert.Equal(t, 2, limiter.count("fetchPage"))
	assert.Equal(t, 0, repo.hitsFor("/riuff/handle/1/13580/recent-submissions?offset=40"))
}

func TestFetchPages_NonNumericYearContinues(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2020", "s.d."}, []string{"2021"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 2019)
	require.NoError(t, err)

	assert.Equal(t, []string{"911", "921"}, ids(records), "the undated item is filtered out")
	assert.Equal(t, 2, limiter.count("fetchPage"), "an undated last item does not stop pagination")
}

// TestFetchPages_EmptyPageTerminates verifies a page without items ends the
// crawl without any further request
func TestFetchPages_EmptyPageTerminates(t *testing.T) {
	repo := newFakeRepository(t)
	repo.set("/riuff/handle/1/13580/recent-submissions", listingHTML("/riuff/handle/1/13580/recent-submissions?offset=20"))
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, 1, repo.totalHits())
	assert.Equal(t, 1, limiter.total())
}

func TestFetchPages_ParseErrorIsFatal(t *testing.T) {
	repo := newFakeRepository(t)
	repo.set("/riuff/handle/1/13580/recent-submissions", listingHTML("", listingRow{Title: "broken", Href: "/riuff/search"}))
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, _ := newTestCrawler(t, repo, func(cfg *Config) { cfg.OnError = PolicySkip })
	_, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr), "id mismatch is fatal even with the skip policy")
}

func TestFetchPages_ListingHTTPError(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail("/riuff/handle/1/13580/recent-submissions", 503)
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, _ := newTestCrawler(t, repo, nil)
	_, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, 503, transportErr.StatusCode)
}

func TestFetchPages_AbortPolicy(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2020", "2021", "2022"})
	repo.fail("/riuff/handle/1/912?show=full", 500)
	coll := repoCollection(repo, "TCCs", "13580")

	c, store, _ := newTestCrawler(t, repo, nil)
	_, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.Error(t, err)

	assert.Equal(t, 1, store.Len(), "items fetched before the failure stay cached")
	assert.Equal(t, 0, repo.hitsFor("/riuff/handle/1/913?show=full"), "the run stops at the failing item")
}

func TestFetchPages_SkipPolicy(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2020", "2021", "2022"})
	repo.fail("/riuff/handle/1/912?show=full", 500)
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, _ := newTestCrawler(t, repo, func(cfg *Config) { cfg.OnError = PolicySkip })
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"911", "913"}, ids(records))
}

// TestFetchPages_SkippedPageContinues verifies a page whose items all failed
// under the skip policy still leads to the next page
func TestFetchPages_SkippedPageContinues(t *testing.T) {
	for _, yearLimit := range []int{0, 2019} {
		t.Run(fmt.Sprintf("year limit %d", yearLimit), func(t *testing.T) {
			repo := newFakeRepository(t)
			servePages(repo, "13580", "9", []string{"2020"}, []string{"2021"})
			repo.fail("/riuff/handle/1/911?show=full", 500)
			coll := repoCollection(repo, "TCCs", "13580")

			c, _, limiter := newTestCrawler(t, repo, func(cfg *Config) { cfg.OnError = PolicySkip })
			records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), yearLimit)
			require.NoError(t, err)

			assert.Equal(t, []string{"921"}, ids(records))
			assert.Equal(t, 2, limiter.count("fetchPage"))
			assert.Equal(t, 1, repo.hitsFor("/riuff/handle/1/13580/recent-submissions?offset=20"))
		})
	}
}

func TestParseListing_KeepsAuthorAsListed(t *testing.T) {
	body := listingHTML("", listingRow{ID: "101", Title: "Título", Author: " Silva,  Maria\tde "})

	listing, err := ParseListing(parseDoc(t, body), scraper.DefaultSelectors().Listing, resolveOn("https://app.uff.br"), testCollection, "page-1")
	require.NoError(t, err)

	require.Len(t, listing.Stubs, 1)
	assert.Equal(t, "Silva,  Maria\tde", listing.Stubs[0].Author)
}

func TestFetchPages_PaginationCycle(t *testing.T) {
	repo := newFakeRepository(t)
	repo.set("/riuff/handle/1/13580/recent-submissions", listingHTML("/riuff/handle/1/13580/recent-submissions?offset=20", listingRow{ID: "1"}))
	repo.set("/riuff/handle/1/13580/recent-submissions?offset=20", listingHTML("/riuff/handle/1/13580/recent-submissions", listingRow{ID: "2"}))
	repo.setItem("1", degreePage("one", "2020"))
	repo.setItem("2", degreePage("two", "2020"))
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, ids(records))
	assert.Equal(t, 2, limiter.count("fetchPage"))
}

func TestFetchPages_MaxPages(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2020"}, []string{"2021"}, []string{"2022"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, _ := newTestCrawler(t, repo, func(cfg *Config) { cfg.MaxPages = 2 })
	records, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"911", "921"}, ids(records))
}

func TestFetchPages_UsesCacheAcrossRuns(t *testing.T) {
	repo := newFakeRepository(t)
	servePages(repo, "13580", "9", []string{"2020", "2021"})
	coll := repoCollection(repo, "TCCs", "13580")

	c, _, limiter := newTestCrawler(t, repo, nil)
	first, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)
	second, err := c.FetchPages(context.Background(), coll, coll.RecentSubmissionsURL(), 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, limiter.count("fetchItemDetails"), "details are fetched once")
	assert.Equal(t, 2, limiter.count("fetchPage"), "listings are always fetched")
}

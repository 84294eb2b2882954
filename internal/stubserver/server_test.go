package stubserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/reviewdeck/internal/reviews"
)

func newTestServer(t *testing.T) (*Server, *reviews.Client) {
	t.Helper()
	s := New(nil,
		reviews.Wiki{ID: "1", Code: "de"},
		reviews.Wiki{ID: "2", Code: "en", Configuration: reviews.Configuration{AutoApprovedGroups: []string{"editor"}}},
	)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	client, err := reviews.NewClient(ts.URL)
	require.NoError(t, err)
	return s, client
}

func TestServer_ListWikisAndPending(t *testing.T) {
	s, client := newTestServer(t)
	ctx := context.Background()

	wikis, err := client.ListWikis(ctx)
	require.NoError(t, err)
	require.Len(t, wikis, 2)
	assert.Equal(t, []string{}, wikis[0].Configuration.BlockingCategories)

	pages, err := client.FetchPending(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, pages)

	s.SetPending("1", []reviews.Page{{PageID: 5, Title: "A"}})
	pages, err = client.FetchPending(ctx, "01")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "A", pages[0].Title)
	assert.Equal(t, 2, s.Hits(OpPending))
}

func TestServer_UnknownWikiAndPage(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	_, err := client.FetchPending(ctx, "99")
	require.Error(t, err)
	assert.Equal(t, "Wiki not found", reviews.Message(err))

	_, err = client.FetchRevisions(ctx, "1", 42)
	require.Error(t, err)
	assert.Equal(t, "Page not found", reviews.Message(err))
}

func TestServer_ClearThenRefreshRestores(t *testing.T) {
	s, client := newTestServer(t)
	ctx := context.Background()
	s.SetPending("1", []reviews.Page{{PageID: 1}, {PageID: 2}})

	require.NoError(t, client.ClearCache(ctx, "1"))
	pages, err := client.FetchPending(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, pages)

	require.NoError(t, client.Refresh(ctx, "1"))
	pages, err = client.FetchPending(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestServer_ConfigurationEcho(t *testing.T) {
	s, client := newTestServer(t)

	got, err := client.UpdateConfiguration(context.Background(), "1", reviews.Configuration{
		BlockingCategories: []string{"Cat A", "Cat B"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat A", "Cat B"}, got.BlockingCategories)
	assert.Equal(t, []string{}, got.AutoApprovedGroups)

	stored, ok := s.Configuration("1")
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestServer_InvalidConfigurationPayload(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/wikis/1/configuration/", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_FaultsByScope(t *testing.T) {
	s, client := newTestServer(t)
	ctx := context.Background()
	s.SetPending("1", []reviews.Page{{PageID: 1}, {PageID: 2}})
	s.SetRevisions("1", 1, []reviews.Revision{{RevID: 11}})
	s.SetRevisions("1", 2, []reviews.Revision{{RevID: 21}})

	s.Fail(Target{Op: OpRevisions, Wiki: "1", Page: 2}, Fault{Status: http.StatusBadGateway, Message: "upstream down"})

	revs, err := client.FetchRevisions(ctx, "1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), revs[0].RevID)

	_, err = client.FetchRevisions(ctx, "1", 2)
	require.Error(t, err)
	assert.Equal(t, "upstream down", reviews.Message(err))

	s.Fail(Target{Op: OpPending}, Fault{Status: http.StatusServiceUnavailable})
	_, err = client.FetchPending(ctx, "1")
	require.Error(t, err)
	assert.Equal(t, "Service Unavailable", reviews.Message(err))

	s.ClearFaults()
	_, err = client.FetchPending(ctx, "1")
	require.NoError(t, err)
}

func TestServer_HoldBlocksUntilRelease(t *testing.T) {
	s, client := newTestServer(t)
	release := s.Hold(Target{Op: OpPending, Wiki: "1"})

	done := make(chan error, 1)
	go func() {
		_, err := client.FetchPending(context.Background(), "1")
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("held request completed before release")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := client.FetchPending(context.Background(), "2")
	require.NoError(t, err, "hold should only match wiki 1")

	release()
	release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("held request never completed")
	}
}

func TestServer_AutoreviewDecisions(t *testing.T) {
	s, client := newTestServer(t)
	ctx := context.Background()

	s.SetPending("2", []reviews.Page{{PageID: 7}})
	s.SetRevisions("2", 7, []reviews.Revision{
		{RevID: 3, Timestamp: "2024-01-03T00:00:00Z", EditorProfile: &reviews.EditorProfile{Usergroups: []string{"Editor"}}},
		{RevID: 1, Timestamp: "2024-01-01T00:00:00Z", EditorProfile: &reviews.EditorProfile{IsBot: true}},
		{RevID: 2, Timestamp: "2024-01-02T00:00:00Z"},
	})

	res, err := client.Autoreview(ctx, "2", 7)
	require.NoError(t, err)
	assert.Equal(t, "dry-run", res.Mode)
	require.Len(t, res.Results, 3)

	assert.Equal(t, int64(1), res.Results[0].RevID)
	assert.Equal(t, StatusApprove, res.Results[0].Decision.Status)
	assert.Equal(t, StatusManual, res.Results[1].Decision.Status)
	assert.Equal(t, StatusApprove, res.Results[2].Decision.Status)
	assert.Contains(t, res.Results[2].Tests[1].Message, "editor")
}

func TestEvaluate_BlockingCategories(t *testing.T) {
	cfg := reviews.Configuration{BlockingCategories: []string{"Living people"}}
	got := evaluate([]reviews.Revision{{RevID: 1, Categories: []string{"living people"}}}, cfg)
	require.Len(t, got, 1)
	assert.Equal(t, StatusBlocked, got[0].Decision.Status)
	assert.Len(t, got[0].Tests, 3)

	got = evaluate([]reviews.Revision{{RevID: 1, EditorProfile: &reviews.EditorProfile{IsAutoreviewed: true}}}, reviews.Configuration{})
	assert.Equal(t, StatusApprove, got[0].Decision.Status)
}

func TestSeedDemo(t *testing.T) {
	s, client := newTestServer(t)
	s.SeedDemo(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	pages, err := client.FetchPending(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, pages, len(demoTitles))
	assert.Empty(t, pages[0].Revisions)

	revs, err := client.FetchRevisions(context.Background(), "1", pages[0].PageID)
	require.NoError(t, err)
	assert.Len(t, revs, 1)

	pages, err = client.FetchPending(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, pages, len(demoTitles)-1)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

var categories = []models.Category{{ID: "person", Name: "Person", DataType: models.DataTypeText}}

// fakeProcessor approves every page whose text does not contain "reject",
// returning one Person entity per word that starts with an upper-case letter.
type fakeProcessor struct {
	inFlight, peak atomic.Int32
}

func (f *fakeProcessor) ProcessEntities(_ context.Context, text string, _ []models.Category) models.WorkflowResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	var entities []models.CandidateEntity
	for _, w := range strings.Fields(text) {
		if w[0] >= 'A' && w[0] <= 'Z' {
			entities = append(entities, models.CandidateEntity{Category: "Person", Value: w, Confidence: 0.9})
		}
	}
	approved := !strings.Contains(text, "reject")
	res := models.WorkflowResult{Entities: entities, FinalApproval: approved, FeedbackHistory: []string{}}
	if !approved {
		res.TotalRetries = 3
	}
	return res
}

func newIngestor() (*tagmerge.Ingestor, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return tagmerge.NewIngestor(st, nil, nil, nil), st
}

func TestProcess_IngestsApprovedPagesAndMergesAcrossPages(t *testing.T) {
	ing, st := newIngestor()
	bp := NewBookProcessor(&fakeProcessor{}, ing, 3, false, nil)

	pages := []models.Content{
		{Page: 1, Text: "Ada met Babbage"},
		{Page: 2, Text: "Ada again"},
		{Page: 3, Text: "Turing reject"},
	}
	report, err := bp.Process(context.Background(), "book-1", pages, categories)
	require.NoError(t, err)

	require.Len(t, report.Pages, 3)
	assert.Equal(t, 1, report.Pages[0].Page)
	assert.Equal(t, 3, report.Pages[2].Page)
	assert.Equal(t, 2, report.Approved)
	assert.Nil(t, report.Pages[2].Ingest)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Merged)

	tags, err := st.ListTags(context.Background(), store.TagFilter{BookID: "book-1"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tg := range tags {
		if tg.Name == "Ada" {
			assert.Len(t, tg.ContentIDs, 2)
		}
	}
}

func TestProcess_IngestUnapproved(t *testing.T) {
	ing, _ := newIngestor()
	bp := NewBookProcessor(&fakeProcessor{}, ing, 1, true, nil)

	report, err := bp.Process(context.Background(), "b", []models.Content{{Page: 1, Text: "Turing reject"}}, categories)
	require.NoError(t, err)
	require.NotNil(t, report.Pages[0].Ingest)
	assert.Equal(t, 1, report.Created)
}

func TestProcess_ExtractOnly(t *testing.T) {
	bp := NewBookProcessor(&fakeProcessor{}, nil, 2, false, nil)
	report, err := bp.Process(context.Background(), "b", []models.Content{{Page: 1, Text: "Ada"}}, categories)
	require.NoError(t, err)
	assert.Nil(t, report.Pages[0].Ingest)
	assert.Len(t, report.Pages[0].Workflow.Entities, 1)
}

func TestProcess_RespectsConcurrencyLimit(t *testing.T) {
	proc := &fakeProcessor{}
	bp := NewBookProcessor(proc, nil, 2, false, nil)

	pages := make([]models.Content, 20)
	for i := range pages {
		pages[i] = models.Content{Page: i + 1, Text: "Ada"}
	}
	_, err := bp.Process(context.Background(), "b", pages, categories)
	require.NoError(t, err)
	assert.LessOrEqual(t, proc.peak.Load(), int32(2))
}

type failingIngester struct {
	mu    sync.Mutex
	calls int
}

func (f *failingIngester) Ingest(context.Context, models.Content, []models.CandidateEntity, []models.Category) (tagmerge.IngestReport, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return tagmerge.IngestReport{}, errors.New("store down")
}

func TestProcess_IngestErrorFails(t *testing.T) {
	bp := NewBookProcessor(&fakeProcessor{}, &failingIngester{}, 1, false, nil)
	_, err := bp.Process(context.Background(), "b", []models.Content{{Page: 7, Text: "Ada"}}, categories)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 7")
	assert.Contains(t, err.Error(), "store down")
}

func TestContentID_Stable(t *testing.T) {
	assert.Equal(t, ContentID("b", 1), ContentID("b", 1))
	assert.NotEqual(t, ContentID("b", 1), ContentID("b", 2))
	assert.NotEqual(t, ContentID("b", 1), ContentID("c", 1))
}

package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/internal/repository/memory"
	"voice-ordering-be/pkg/intent"
	"voice-ordering-be/pkg/llm"
	"voice-ordering-be/pkg/rerank"
	"voice-ordering-be/pkg/retrieval"
	"voice-ordering-be/pkg/store"
)

// fakeCatalog serves a fixed menu. SearchNearest ignores the embedding and
// returns the scripted candidates.
type fakeCatalog struct {
	items      []*entity.MenuItem
	candidates []*contract.ScoredMenuItem
	searchErr  error
	idLookups  [][]uint
}

func (f *fakeCatalog) byID(id uint) *entity.MenuItem {
	for _, item := range f.items {
		if item.Id == id {
			return item
		}
	}
	return nil
}

func (f *fakeCatalog) FindAll(context.Context) ([]*entity.MenuItem, error) { return f.items, nil }

func (f *fakeCatalog) FindByCategory(context.Context, string) ([]*entity.MenuItem, error) {
	return nil, nil
}

func (f *fakeCatalog) Categories(context.Context) ([]string, error) { return nil, nil }

func (f *fakeCatalog) FindByIds(_ context.Context, ids []uint) ([]*entity.MenuItem, error) {
	f.idLookups = append(f.idLookups, ids)
	var out []*entity.MenuItem
	for _, id := range ids {
		if item := f.byID(id); item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindNamesByIds(ctx context.Context, ids []uint) ([]string, error) {
	items, _ := f.FindByIds(ctx, ids)
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names, nil
}

func (f *fakeCatalog) FindIdsByNames(_ context.Context, names []string) ([]uint, error) {
	var out []uint
	for _, item := range f.items {
		for _, name := range names {
			if strings.EqualFold(item.Name, name) {
				out = append(out, item.Id)
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindIdsByNamesInSet(ctx context.Context, names []string, candidateIds []uint) ([]uint, error) {
	all, _ := f.FindIdsByNames(ctx, names)
	allowed := make(map[uint]bool, len(candidateIds))
	for _, id := range candidateIds {
		allowed[id] = true
	}
	var out []uint
	for _, id := range all {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchNearest(_ context.Context, _ []float32, excludeIds []uint, limit int) ([]*contract.ScoredMenuItem, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	excluded := make(map[uint]bool, len(excludeIds))
	for _, id := range excludeIds {
		excluded[id] = true
	}
	var out []*contract.ScoredMenuItem
	for _, c := range f.candidates {
		if excluded[c.Item.Id] {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) Save(context.Context, *entity.MenuItem) error { return nil }

func (f *fakeCatalog) UpdateEmbedding(context.Context, uint, []float32) error { return nil }

func (f *fakeCatalog) FindIdsMissingEmbedding(context.Context) ([]uint, error) { return nil, nil }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, f.err
}

func (f *fakeEmbedder) EmbedDocument(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, f.err
}

// flatScorer keeps retrieval order by scoring every document equally.
type flatScorer struct{}

func (flatScorer) Score(_ context.Context, _ string, documents []string) ([]float64, error) {
	scores := make([]float64, len(documents))
	return scores, nil
}

// scriptedChatProvider returns queued responses in order, repeating the
// last one.
type scriptedChatProvider struct {
	responses []string
	calls     int
	err       error
}

func (s *scriptedChatProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func (s *scriptedChatProvider) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	return s.Chat(ctx, nil)
}

func menu() *fakeCatalog {
	burger := &entity.MenuItem{Id: 1, Name: "Big Mac", Description: "Two beef patties", Category: "Burgers"}
	fries := &entity.MenuItem{Id: 2, Name: "Fries", Description: "Golden fries", Category: "Sides"}
	shake := &entity.MenuItem{Id: 3, Name: "Milkshake", Description: "Vanilla shake", Category: "Drinks"}
	return &fakeCatalog{
		items: []*entity.MenuItem{burger, fries, shake},
		candidates: []*contract.ScoredMenuItem{
			{Item: burger, Distance: 0.2},
			{Item: fries, Distance: 0.4},
			{Item: shake, Distance: 0.6},
		},
	}
}

func newTestPipeline(t *testing.T, catalog *fakeCatalog, llmResponses ...string) (*Pipeline, *scriptedChatProvider) {
	t.Helper()
	log := logger.NewNopLogger()
	llmProvider := &scriptedChatProvider{responses: llmResponses}
	return NewPipeline(
		memory.NewSessionRepository(time.Hour),
		catalog,
		&fakeEmbedder{},
		retrieval.NewEngine(catalog, log),
		rerank.NewReranker(flatScorer{}, -8.0, log),
		intent.NewClassifier(llmProvider, log),
		log,
		Config{MaxResults: 20, DistanceThreshold: 0.8, Timeout: 5 * time.Second},
	), llmProvider
}

func TestRunEmptyTranscriptSkipsClassification(t *testing.T) {
	pipeline, llmProvider := newTestPipeline(t, menu())

	result, err := pipeline.Run(context.Background(), "", "en-US", "   ")
	require.NoError(t, err)

	assert.Zero(t, llmProvider.calls, "classifier must not run without speech")
	assert.NotEmpty(t, result.SessionID)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Basket)
	assert.Contains(t, result.Message, "didn't catch")
}

func TestRunEmptyTranscriptFetchesOnlyBasket(t *testing.T) {
	catalog := menu()
	pipeline, _ := newTestPipeline(t, catalog,
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)
	require.Len(t, first.Items, 3)

	catalog.idLookups = nil
	silent, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "")
	require.NoError(t, err)

	assert.Empty(t, silent.Items)
	assert.Empty(t, catalog.idLookups, "displayed items are not loaded when nothing was said")
}

func TestRunAddDisplaysRankedCandidates(t *testing.T) {
	pipeline, _ := newTestPipeline(t, menu(),
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`)

	result, err := pipeline.Run(context.Background(), "", "en-US", "I want a burger")
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, "Big Mac", result.Items[0].Name)
	assert.Empty(t, result.Basket)
}

func TestRunSelectMovesToBasketAndOffDisplay(t *testing.T) {
	catalog := menu()
	pipeline, _ := newTestPipeline(t, catalog,
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"SELECT","select_items":["Big Mac"],"quantities":{"Big Mac":2}}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)

	second, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "the big mac, two of them")
	require.NoError(t, err)

	require.Len(t, second.Basket, 1)
	assert.Equal(t, "Big Mac", second.Basket[0].Item.Name)
	assert.Equal(t, 2, second.Basket[0].Quantity)
	for _, item := range second.Items {
		assert.NotEqual(t, "Big Mac", item.Name, "selected item must leave the displayed set")
	}
}

func TestRunSelectUnresolvedFallsBackToSearch(t *testing.T) {
	pipeline, _ := newTestPipeline(t, menu(),
		`{"intent":"SELECT","select_items":["double cheeseburger"]}`)

	result, err := pipeline.Run(context.Background(), "", "en-US", "give me the double cheeseburger")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Items, "unresolved selection degrades to a fresh search")
	assert.Empty(t, result.Basket)
}

func TestRunRefinementExcludesDisplayed(t *testing.T) {
	catalog := menu()
	pipeline, _ := newTestPipeline(t, catalog,
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"ADD","search_criteria":"without cheese","new_search":false}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)
	require.Len(t, first.Items, 3)

	second, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "without cheese")
	require.NoError(t, err)

	assert.Empty(t, second.Items, "refinement excludes everything already displayed")
}

func TestRunRemoveFromBasketDropsEntireLine(t *testing.T) {
	pipeline, _ := newTestPipeline(t, menu(),
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"SELECT","select_items":["Fries"],"quantities":{"Fries":3}}`,
		`{"intent":"REMOVE_FROM_BASKET","remove_from_basket":["Fries"]}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me the menu")
	require.NoError(t, err)

	second, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "three fries")
	require.NoError(t, err)
	require.Len(t, second.Basket, 1)

	third, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "actually no fries")
	require.NoError(t, err)
	assert.Empty(t, third.Basket, "removal always drops the whole line")
}

func TestRunClearKeepsSessionButEmptiesState(t *testing.T) {
	pipeline, _ := newTestPipeline(t, menu(),
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"SELECT","select_items":["Big Mac"]}`,
		`{"intent":"CLEAR"}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), first.SessionID, "en-US", "the big mac")
	require.NoError(t, err)

	cleared, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "start over")
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, cleared.SessionID)
	assert.Empty(t, cleared.Items)
	assert.Empty(t, cleared.Basket)
	assert.Contains(t, cleared.Message, "cleared")
}

func TestRunConfirmSetsFlagWithoutMutation(t *testing.T) {
	pipeline, _ := newTestPipeline(t, menu(),
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"SELECT","select_items":["Big Mac"]}`,
		`{"intent":"CONFIRM"}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), first.SessionID, "en-US", "the big mac")
	require.NoError(t, err)

	confirmed, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "that's all")
	require.NoError(t, err)

	assert.True(t, confirmed.Confirmed)
	require.Len(t, confirmed.Basket, 1)
	assert.Equal(t, "Big Mac", confirmed.Basket[0].Item.Name)
}

func TestRunRetrievalFailureLeavesSessionUntouched(t *testing.T) {
	catalog := menu()
	pipeline, _ := newTestPipeline(t, catalog,
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"SELECT","select_items":["Big Mac"]}`,
		`{"intent":"ADD","search_criteria":"dessert","new_search":true}`)

	first, err := pipeline.Run(context.Background(), "", "en-US", "show me burgers")
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), first.SessionID, "en-US", "the big mac")
	require.NoError(t, err)

	catalog.searchErr = errors.New("database gone")
	_, err = pipeline.Run(context.Background(), first.SessionID, "en-US", "something sweet")
	require.Error(t, err)

	// The failed turn must not have altered the basket.
	catalog.searchErr = nil
	after, err := pipeline.Run(context.Background(), first.SessionID, "en-US", "")
	require.NoError(t, err)
	require.Len(t, after.Basket, 1)
	assert.Equal(t, "Big Mac", after.Basket[0].Item.Name)
}

func TestRunClassifierFailureAbortsTurn(t *testing.T) {
	pipeline, llmProvider := newTestPipeline(t, menu(), "not json at all")
	llmProvider.err = errors.New("model offline")

	_, err := pipeline.Run(context.Background(), "", "en-US", "hello")
	assert.Error(t, err)
}

// copyOnReadStore wraps the in-memory store so every read hands out a fresh
// deserialized copy, the way the Redis backend behaves.
type copyOnReadStore struct {
	*memory.SessionRepository
}

func (s *copyOnReadStore) clone(session *store.OrderSession) *store.OrderSession {
	data, _ := json.Marshal(session)
	var out store.OrderSession
	_ = json.Unmarshal(data, &out)
	return &out
}

func (s *copyOnReadStore) GetOrCreate(id string) *store.OrderSession {
	return s.clone(s.SessionRepository.GetOrCreate(id))
}

func (s *copyOnReadStore) Get(id string) (*store.OrderSession, bool) {
	session, ok := s.SessionRepository.Get(id)
	if !ok {
		return nil, false
	}
	return s.clone(session), true
}

func (s *copyOnReadStore) Save(session *store.OrderSession) {
	s.SessionRepository.Save(s.clone(session))
}

// gatedChatProvider parks the first Chat call until released, so a test can
// hold one pipeline run mid-classification while a second run is issued.
type gatedChatProvider struct {
	inner   *scriptedChatProvider
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

func newGatedChatProvider(responses ...string) *gatedChatProvider {
	return &gatedChatProvider{
		inner:   &scriptedChatProvider{responses: responses},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedChatProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.Chat(ctx, messages, opts...)
}

func (g *gatedChatProvider) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	return g.Chat(ctx, nil)
}

func TestRunOverlappingTurnsKeepBothUtterances(t *testing.T) {
	catalog := menu()
	sessions := &copyOnReadStore{memory.NewSessionRepository(time.Hour)}
	log := logger.NewNopLogger()
	llmProvider := newGatedChatProvider(
		`{"intent":"ADD","search_criteria":"burger","new_search":true}`,
		`{"intent":"ADD","search_criteria":"fries","new_search":true}`,
	)
	pipeline := NewPipeline(
		sessions,
		catalog,
		&fakeEmbedder{},
		retrieval.NewEngine(catalog, log),
		rerank.NewReranker(flatScorer{}, -8.0, log),
		intent.NewClassifier(llmProvider, log),
		log,
		Config{MaxResults: 20, DistanceThreshold: 0.8, Timeout: 5 * time.Second},
	)

	session := store.NewOrderSession()
	sessions.Save(session)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := pipeline.Run(context.Background(), session.ID, "en-US", "show me burgers")
		assert.NoError(t, err)
	}()

	// The first run now holds the session lock inside classification. The
	// second must queue on that lock and re-read the session afterwards,
	// not save a copy taken before the first run finished.
	<-llmProvider.entered
	go func() {
		defer wg.Done()
		_, err := pipeline.Run(context.Background(), session.ID, "en-US", "show me fries")
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	close(llmProvider.release)
	wg.Wait()

	final, ok := sessions.Get(session.ID)
	require.True(t, ok)
	assert.Len(t, final.History, 2, "an overlapping turn must not erase the other's utterance")
}

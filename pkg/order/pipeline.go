package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/pkg/embedding"
	"voice-ordering-be/pkg/intent"
	"voice-ordering-be/pkg/rerank"
	"voice-ordering-be/pkg/retrieval"
	"voice-ordering-be/pkg/store"
)

// Config bounds one pipeline run.
type Config struct {
	MaxResults        int
	DistanceThreshold float64
	Timeout           time.Duration
}

// BasketLine is one basket entry with its accumulated quantity.
type BasketLine struct {
	Item     *entity.MenuItem
	Quantity int
}

// Result is the assembled outcome of one pipeline run: the candidate items
// currently displayed (rank order) and the basket (insertion order).
type Result struct {
	SessionID  string
	Transcript string
	Message    string
	Confirmed  bool
	Items      []*entity.MenuItem
	Basket     []BasketLine
}

// Pipeline turns one finalized transcript into session mutations and a
// response. Runs for the same session ID are serialized through the session
// store's per-session lock; a provider failure aborts the turn and leaves
// the session exactly as it was.
type Pipeline struct {
	sessions   store.SessionStore
	catalog    contract.MenuItemRepository
	embedder   embedding.Provider
	engine     *retrieval.Engine
	reranker   *rerank.Reranker
	classifier *intent.Classifier
	logger     logger.ILogger
	cfg        Config
}

func NewPipeline(
	sessions store.SessionStore,
	catalog contract.MenuItemRepository,
	embedder embedding.Provider,
	engine *retrieval.Engine,
	reranker *rerank.Reranker,
	classifier *intent.Classifier,
	log logger.ILogger,
	cfg Config,
) *Pipeline {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = 0.8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Pipeline{
		sessions:   sessions,
		catalog:    catalog,
		embedder:   embedder,
		engine:     engine,
		reranker:   reranker,
		classifier: classifier,
		logger:     log,
		cfg:        cfg,
	}
}

// Run processes one utterance for sessionID, creating the session when the
// ID is empty or unknown.
func (p *Pipeline) Run(ctx context.Context, sessionID, language, transcript string) (*Result, error) {
	session, unlock := store.LockAndGet(p.sessions, sessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if language != "" {
		session.Language = language
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		p.sessions.Save(session)
		// No speech: nothing was classified, so only the basket is reported.
		basket, err := p.basketLines(ctx, session)
		if err != nil {
			return nil, err
		}
		return &Result{
			SessionID: session.ID,
			Message:   "I didn't catch that. Could you say it again?",
			Items:     []*entity.MenuItem{},
			Basket:    basket,
		}, nil
	}

	displayedNames, err := p.catalog.FindNamesByIds(ctx, session.DisplayedIds)
	if err != nil {
		return nil, fmt.Errorf("load displayed names: %w", err)
	}
	basketNames, err := p.catalog.FindNamesByIds(ctx, session.BasketIds)
	if err != nil {
		return nil, fmt.Errorf("load basket names: %w", err)
	}

	classified, err := p.classifier.Classify(ctx, transcript, session.History, displayedNames, basketNames)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	p.logger.Info("Pipeline", "Intent classified", map[string]interface{}{
		"session": session.ID,
		"intent":  classified.Type,
	})

	var message string
	confirmed := false

	switch classified.Type {
	case intent.TypeClear:
		session.RecordUtterance(transcript, intent.TypeClear, false, "")
		session.Clear()
		message = "Your order has been cleared. What would you like?"

	case intent.TypeConfirm:
		session.RecordUtterance(transcript, intent.TypeConfirm, false, "")
		confirmed = true
		message = "Your order is confirmed. Thank you!"

	case intent.TypeRemove:
		ids, err := p.catalog.FindIdsByNames(ctx, classified.RemoveItems)
		if err != nil {
			return nil, fmt.Errorf("resolve removed items: %w", err)
		}
		session.RecordUtterance(transcript, intent.TypeRemove, false, "")
		session.DisplayedIds = withoutIds(session.DisplayedIds, ids)
		message = "Okay, I took those off the list."

	case intent.TypeAdd:
		message, err = p.runSearch(ctx, session, transcript, classified.SearchCriteria, classified.NewSearch)
		if err != nil {
			return nil, err
		}

	case intent.TypeSelect:
		message, err = p.runSelect(ctx, session, transcript, classified)
		if err != nil {
			return nil, err
		}

	case intent.TypeRemoveFromBasket:
		ids, err := p.catalog.FindIdsByNames(ctx, classified.RemoveFromBasket)
		if err != nil {
			return nil, fmt.Errorf("resolve basket removals: %w", err)
		}
		session.RecordUtterance(transcript, intent.TypeRemoveFromBasket, false, "")
		session.RemoveFromBasket(ids)
		message = "Removed from your basket."

	default:
		return nil, fmt.Errorf("unexpected intent type: %s", classified.Type)
	}

	p.sessions.Save(session)
	return p.assemble(ctx, session, transcript, message, confirmed)
}

// runSearch is the ADD branch. The session is only mutated after retrieval
// and reranking succeed, so a failed turn never corrupts the accumulated
// criteria or the displayed set.
func (p *Pipeline) runSearch(ctx context.Context, session *store.OrderSession, transcript, criteria string, newSearch bool) (string, error) {
	if criteria == "" {
		criteria = transcript
	}

	query := criteria
	if !newSearch && session.AccumulatedCriteria != "" {
		query = strings.TrimSpace(session.AccumulatedCriteria + " " + criteria)
	}

	exclude := append([]uint{}, session.BasketIds...)
	if !newSearch {
		exclude = append(exclude, session.DisplayedIds...)
	}

	queryEmbedding, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	candidates, err := p.engine.Search(ctx, queryEmbedding, exclude, p.cfg.MaxResults, p.cfg.DistanceThreshold)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	ranked, err := p.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return "", fmt.Errorf("rerank failed: %w", err)
	}

	session.RecordUtterance(transcript, intent.TypeAdd, newSearch, criteria)
	session.DisplayedIds = itemIds(ranked)

	if len(ranked) == 0 {
		return "I couldn't find anything matching that. Try describing it differently?", nil
	}
	return "Here's what I found. Which one would you like?", nil
}

// runSelect resolves the named items against the displayed set. When nothing
// resolves the utterance is treated as a fresh search for the named text,
// not as a failure.
func (p *Pipeline) runSelect(ctx context.Context, session *store.OrderSession, transcript string, classified *intent.Result) (string, error) {
	ids, err := p.catalog.FindIdsByNamesInSet(ctx, classified.SelectItems, session.DisplayedIds)
	if err != nil {
		return "", fmt.Errorf("resolve selected items: %w", err)
	}

	if len(ids) == 0 {
		query := strings.TrimSpace(strings.Join(classified.SelectItems, " "))
		if query == "" {
			query = transcript
		}
		return p.runSearch(ctx, session, transcript, query, true)
	}

	quantities, err := p.quantitiesByID(ctx, ids, classified.Quantities)
	if err != nil {
		return "", err
	}

	session.RecordUtterance(transcript, intent.TypeSelect, false, "")
	session.AddToBasket(ids, quantities)
	session.DisplayedIds = withoutIds(session.DisplayedIds, ids)
	return "Added to your basket. Anything else?", nil
}

// quantitiesByID maps the classifier's name-keyed quantities onto item IDs.
func (p *Pipeline) quantitiesByID(ctx context.Context, ids []uint, byName map[string]int) (map[uint]int, error) {
	if len(byName) == 0 {
		return nil, nil
	}

	items, err := p.catalog.FindByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load selected items: %w", err)
	}

	quantities := make(map[uint]int)
	for _, item := range items {
		for name, qty := range byName {
			if strings.EqualFold(item.Name, name) {
				quantities[item.Id] = qty
			}
		}
	}
	return quantities, nil
}

// assemble re-fetches the full records behind the session's ID lists,
// restoring rank order for displayed items and insertion order for the basket.
func (p *Pipeline) assemble(ctx context.Context, session *store.OrderSession, transcript, message string, confirmed bool) (*Result, error) {
	displayed, err := p.itemsInOrder(ctx, session.DisplayedIds)
	if err != nil {
		return nil, fmt.Errorf("load displayed items: %w", err)
	}

	basket, err := p.basketLines(ctx, session)
	if err != nil {
		return nil, err
	}

	return &Result{
		SessionID:  session.ID,
		Transcript: transcript,
		Message:    message,
		Confirmed:  confirmed,
		Items:      displayed,
		Basket:     basket,
	}, nil
}

// basketLines fetches the basket items in insertion order with their
// accumulated quantities.
func (p *Pipeline) basketLines(ctx context.Context, session *store.OrderSession) ([]BasketLine, error) {
	items, err := p.itemsInOrder(ctx, session.BasketIds)
	if err != nil {
		return nil, fmt.Errorf("load basket items: %w", err)
	}
	basket := make([]BasketLine, 0, len(items))
	for _, item := range items {
		basket = append(basket, BasketLine{
			Item:     item,
			Quantity: session.BasketQuantities[item.Id],
		})
	}
	return basket, nil
}

func (p *Pipeline) itemsInOrder(ctx context.Context, ids []uint) ([]*entity.MenuItem, error) {
	if len(ids) == 0 {
		return []*entity.MenuItem{}, nil
	}

	fetched, err := p.catalog.FindByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*entity.MenuItem, len(fetched))
	for _, item := range fetched {
		byID[item.Id] = item
	}

	ordered := make([]*entity.MenuItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

func itemIds(items []*entity.MenuItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Id)
	}
	return ids
}

func withoutIds(ids []uint, remove []uint) []uint {
	if len(remove) == 0 {
		return ids
	}
	drop := make(map[uint]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	kept := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	return kept
}

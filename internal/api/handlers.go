// Package api serves the reconciled items and detected spikes over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/query"
	"ge-price-lab/internal/snapshot"
	"ge-price-lab/internal/spike"
	"ge-price-lab/internal/storage"
)

// DefaultHistoryWindow is used when a request has no since parameter.
const DefaultHistoryWindow = 24 * time.Hour

// StatusProvider reports ingestion state for /status.
type StatusProvider interface {
	Status() any
}

// StatusFunc adapts a function to StatusProvider.
type StatusFunc func() any

// Status implements StatusProvider.
func (f StatusFunc) Status() any { return f() }

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	items     storage.ItemStore
	snapshots storage.SnapshotStore
	spikeCfg  spike.Config
	status    StatusProvider
	logger    *log.Logger
	now       func() time.Time
}

// HandlerOptions contains configuration for creating a Handler.
type HandlerOptions struct {
	Items     storage.ItemStore
	Snapshots storage.SnapshotStore
	Spike     spike.Config
	Status    StatusProvider // optional
	Logger    *log.Logger
}

// NewHandler creates a new Handler.
func NewHandler(opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		items:     opts.Items,
		snapshots: opts.Snapshots,
		spikeCfg:  opts.Spike,
		status:    opts.Status,
		logger:    logger,
		now:       time.Now,
	}
}

// ItemView is an item with its derived margin.
type ItemView struct {
	*domain.Item
	Margin int64 `json:"margin"`
}

func newItemView(it *domain.Item) ItemView {
	return ItemView{Item: it, Margin: it.Margin()}
}

// SpikeView is a spike event with the item name attached.
type SpikeView struct {
	*domain.SpikeEvent
	Name string `json:"name"`
}

// HistoryView is an item's snapshot series with per-field averages.
type HistoryView struct {
	ItemID    int64               `json:"item_id"`
	Since     int64               `json:"since"`
	Snapshots []*domain.Snapshot  `json:"snapshots"`
	Averages  map[string]*float64 `json:"averages"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Status handles GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ingestion not running"})
		return
	}
	respondJSON(w, http.StatusOK, h.status.Status())
}

// ListItems handles GET /api/v1/items
//
// Query parameters: where (repeatable, e.g. margin>100k), search, sort,
// order (asc or desc, default desc) and limit.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	preds := make([]query.Predicate[*domain.Item], 0, len(q["where"]))
	for _, expr := range q["where"] {
		p, err := query.ItemPredicate(expr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preds = append(preds, p)
	}

	var sortBy query.Getter[*domain.Item]
	if name := strings.ToLower(q.Get("sort")); name != "" {
		get, ok := query.ItemField(name)
		if !ok {
			http.Error(w, "unknown sort field: "+name, http.StatusBadRequest)
			return
		}
		sortBy = get
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	all, err := h.items.GetAll(r.Context())
	if err != nil {
		h.logger.Printf("list items: %v", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}

	items := query.Filter(query.SearchByName(all, q.Get("search")), preds...)
	if sortBy != nil {
		items = query.SortBy(items, sortBy, q.Get("order") != "asc")
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, newItemView(it))
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(views), "items": views})
}

// GetItem handles GET /api/v1/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	it, err := h.items.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Printf("get item %d: %v", id, err)
		http.Error(w, "failed to load item", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, newItemView(it))
}

// GetHistory handles GET /api/v1/items/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	since, err := h.parseSince(r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snaps, err := h.snapshots.GetByTimeRange(r.Context(), id, since, h.now().UnixMilli())
	if err != nil {
		h.logger.Printf("history %d: %v", id, err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if snaps == nil {
		snaps = []*domain.Snapshot{}
	}

	respondJSON(w, http.StatusOK, HistoryView{
		ItemID:    id,
		Since:     since,
		Snapshots: snaps,
		Averages:  snapshot.Averages(snaps),
	})
}

// ListSpikes handles GET /api/v1/spikes
//
// Query parameters: tier, where (repeatable, over spike fields), since and limit.
// since also bounds the baseline history; since=all uses every snapshot.
func (h *Handler) ListSpikes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	preds := make([]query.Predicate[*domain.SpikeEvent], 0, len(q["where"]))
	for _, expr := range q["where"] {
		p, err := query.SpikePredicate(expr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preds = append(preds, p)
	}

	since, err := h.parseSince(q.Get("since"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.snapshots.GetHistory(r.Context(), since)
	if err != nil {
		h.logger.Printf("spike history: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	events := spike.Detect(history, h.spikeCfg)
	if raw := q.Get("tier"); raw != "" {
		tier, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid tier: "+raw, http.StatusBadRequest)
			return
		}
		events = spike.FilterTier(events, tier)
	}
	events = query.Filter(events, preds...)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	names, err := h.itemNames(r)
	if err != nil {
		h.logger.Printf("spike names: %v", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}

	views := make([]SpikeView, 0, len(events))
	for _, e := range events {
		views = append(views, SpikeView{SpikeEvent: e, Name: names[e.ItemID]})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":      len(views),
		"thresholds": h.spikeCfg.Thresholds,
		"spikes":     views,
	})
}

func (h *Handler) itemNames(r *http.Request) (map[int64]string, error) {
	all, err := h.items.GetAll(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(all))
	for _, it := range all {
		names[it.ID] = it.Name
	}
	return names, nil
}

// parseSince turns a duration such as "6h" into a unix ms lower bound.
// Empty selects DefaultHistoryWindow and "all" selects the whole history.
// For spikes the bound also limits the baseline: only snapshots after it
// count as prior history, so "since=all" gives the full-history baseline.
func (h *Handler) parseSince(raw string) (int64, error) {
	switch raw {
	case "":
		return h.now().Add(-DefaultHistoryWindow).UnixMilli(), nil
	case "all":
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid since: " + raw)
	}
	return h.now().Add(-d).UnixMilli(), nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid limit: " + raw)
	}
	return n, nil
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid item id: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/paging"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type listItem struct {
	audit.Event
	ActorName  string `json:"actor_name,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

type listResponse struct {
	Items      []listItem   `json:"items"`
	Total      int64        `json:"total"`
	Category   string       `json:"category,omitempty"`
	EventType  string       `json:"event_type,omitempty"`
	EventTypes []string     `json:"event_types"`
	Range      paging.Range `json:"range"`
}

func parseDay(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// ServeList handles GET /audit with optional category, event_type,
// start_date and end_date (inclusive, YYYY-MM-DD) filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	if category != "" && !knownCategory(category) {
		httpjson.BadRequest(w, "unknown category")
		return
	}
	start, ok1 := parseDay(strings.TrimSpace(q.Get("start_date")))
	end, ok2 := parseDay(strings.TrimSpace(q.Get("end_date")))
	if !ok1 || !ok2 {
		httpjson.BadRequest(w, "dates must be YYYY-MM-DD")
		return
	}
	if end != nil {
		endOfDay := end.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}

	startAt := paging.ParseStart(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		StartTime: start,
		EndTime:   end,
		Limit:     paging.LimitPlusOne(),
		Offset:    paging.Skip(startAt),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		httpjson.ServerError(w, h.Log, "query audit events", err)
		return
	}
	hasNext := paging.TrimPage(&events)
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		httpjson.ServerError(w, h.Log, "count audit events", err)
		return
	}

	names := h.resolveNames(ctx, events)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		it := listItem{Event: e}
		if e.ActorID != nil {
			it.ActorName = nameOr(names, *e.ActorID)
		}
		if e.UserID != nil {
			it.TargetName = nameOr(names, *e.UserID)
		}
		items = append(items, it)
	}

	types := eventTypes[category]
	if category == "" {
		types = allEventTypes()
	}
	httpjson.OK(w, listResponse{
		Items:      items,
		Total:      total,
		Category:   category,
		EventType:  eventType,
		EventTypes: types,
		Range:      paging.ComputeRange(startAt, len(items), hasNext),
	})
}

// resolveNames looks up account names for actors and targets. A failed
// lookup degrades to hex IDs.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}
	names, err := h.Accounts.NamesByID(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch account names for audit log", zap.Error(err))
		return map[primitive.ObjectID]string{}
	}
	return names
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id.Hex()
}

func allEventTypes() []string {
	var out []string
	for _, c := range []string{audit.CategoryAuth, audit.CategoryPortal, audit.CategoryAdmin} {
		out = append(out, eventTypes[c]...)
	}
	return out
}

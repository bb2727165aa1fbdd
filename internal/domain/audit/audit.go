package audit

import (
	"context"
	"sort"
	"time"

	"hrms/internal/platform/filedb"
	"hrms/internal/platform/ident"
)

const Collection = "audit"

// Event is an append-only record of a sensitive mutation.
type Event struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	RequestID  string         `json:"requestId,omitempty"`
	IP         string         `json:"ip,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	Details    map[string]any `json:"details,omitempty"`
}

type Query struct {
	Action  string
	ActorID string
}

type Service struct {
	col *filedb.Collection[Event]
}

func New(db *filedb.Store) *Service {
	return &Service{col: filedb.NewCollection[Event](db, Collection)}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, details map[string]any) error {
	return s.col.Insert(Event{
		ID:         ident.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		CreatedAt:  time.Now().UTC(),
		Details:    details,
	})
}

// List returns matching events, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Event, error) {
	events, err := s.col.Find(func(e Event) bool {
		if q.Action != "" && e.Action != q.Action {
			return false
		}
		if q.ActorID != "" && e.ActorID != q.ActorID {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

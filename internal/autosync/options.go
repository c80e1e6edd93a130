package autosync

import (
	"time"

	"github.com/dmitrijs2005/erpsync/internal/models"
)

const DefaultRemoteTimeout = 10 * time.Second

type Option func(*Syncer)

// WithRemoteTimeout bounds every remote call. Zero or negative disables it.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.remoteTimeout = d }
}

// WithRecorder persists stats after every completed cycle.
func WithRecorder(r Recorder) Option {
	return func(s *Syncer) { s.recorder = r }
}

// WithEntities restricts the cycle to the given entity types, kept in
// their canonical order.
func WithEntities(types ...models.EntityType) Option {
	return func(s *Syncer) {
		want := make(map[models.EntityType]bool, len(types))
		for _, t := range types {
			want[t] = true
		}
		s.schemas = s.schemas[:0]
		for _, sc := range models.Schemas() {
			if want[sc.Entity] {
				s.schemas = append(s.schemas, sc)
			}
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

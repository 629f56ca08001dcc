package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vango-dev/hookbind/pkg/hook"
)

// Frame is a websocket message of a watch connection.
type Frame struct {
	Seq   uint64          `json:"seq"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	At    time.Time       `json:"at"`
}

// encodeValue marshals v, falling back to its fmt representation for
// values encoding/json cannot handle.
func encodeValue(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return data
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	name, key := chi.URLParam(r, "name"), chi.URLParam(r, "key")
	st, ok := s.registry.Get(name)
	if !ok {
		unknownStore(w, "inspect.watch", name)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Warn("watch upgrade failed", "store", name, "key", key, "code", "H096", "err", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.config.Logger.With("conn", id, "store", name, "key", key)
	s.conns.Add(1)
	defer s.conns.Add(-1)
	log.Debug("watch opened")

	frames := make(chan Frame, s.config.Buffer)
	done := make(chan struct{})
	var seq atomic.Uint64

	owner := hook.NewOwner(nil)
	defer owner.Dispose()

	info, err := hook.Key(st, key)
	if err != nil {
		return
	}
	// Emissions run on the writer's goroutine; hand frames to the
	// connection's writer without blocking it.
	b := info.BindToCallback(func(v any) {
		f := Frame{Seq: seq.Add(1), Key: key, Value: encodeValue(v), At: time.Now().UTC()}
		select {
		case frames <- f:
		case <-done:
		default:
			log.Warn("watch frame dropped", "seq", f.Seq)
		}
	}).BindDestroy(owner)
	b.Emit()

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			log.Debug("watch closed")
			return
		case f := <-frames:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteJSON(f); err != nil {
				log.Debug("watch write failed", "error", err)
				return
			}
		}
	}
}

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/strand-ui/strand/pkg/metrics/prom"
	"github.com/strand-ui/strand/pkg/strand"
)

func demoCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve a live selected-row feed",
		Long: `Runs an HTTP server around one shared equality selector.

  POST /select/{id}   set the selected row
  GET  /ws/{key}      subscribe to one key over WebSocket; the client
                      receives a push exactly when its key is selected
                      or deselected, never on unrelated row changes

This is the selector's purpose made visible: with N subscribed rows, one
select causes at most two pushes (old row out, new row in).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

// selectionHub owns the shared selector and serializes source writes with
// effect flushes so subscriber effects run exactly once per committed
// selection change.
type selectionHub struct {
	mu         sync.Mutex
	owner      *strand.Owner
	source     *strand.Signal[int]
	isSelected func(int) bool
}

func newSelectionHub() *selectionHub {
	h := &selectionHub{
		owner:  strand.NewOwner(nil),
		source: strand.NewSignal(0),
	}
	strand.WithOwner(h.owner, func() {
		h.isSelected = strand.CreateSelector(h.source.Get, strand.WithMetrics(prom.New()))
	})
	return h
}

// Select commits a new selection and flushes subscriber effects.
func (h *selectionHub) Select(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source.Set(id)
	h.owner.RunPendingEffects()
}

// Subscribe creates a per-connection effect watching one key. The returned
// channel receives the selection state on every flip (and once immediately);
// dispose tears the effect down.
func (h *selectionHub) Subscribe(key int) (updates <-chan bool, dispose func()) {
	out := make(chan bool, 8)

	h.mu.Lock()
	scope := strand.NewOwner(h.owner)
	strand.WithOwner(scope, func() {
		strand.CreateEffect(func() strand.Cleanup {
			selected := h.isSelected(key)
			select {
			case out <- selected:
			default:
				// Slow consumer: drop rather than stall the flush.
			}
			return nil
		})
	})
	h.mu.Unlock()

	var once sync.Once
	dispose = func() {
		once.Do(func() {
			// Serialize with Select's flush so no effect run can race
			// the channel close.
			h.mu.Lock()
			scope.Dispose()
			h.mu.Unlock()
			close(out)
		})
	}
	return out, dispose
}

type selectionUpdate struct {
	Key      int  `json:"key"`
	Selected bool `json:"selected"`
}

var upgrader = websocket.Upgrader{
	// Demo tool: accept any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func runDemo(addr string) error {
	hub := newSelectionHub()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/select/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(req, "id"))
		if err != nil {
			http.Error(w, "id must be an integer", http.StatusBadRequest)
			return
		}
		hub.Select(id)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/ws/{key}", func(w http.ResponseWriter, req *http.Request) {
		key, err := strconv.Atoi(chi.URLParam(req, "key"))
		if err != nil {
			http.Error(w, "key must be an integer", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Printf("upgrade: %v", err)
			return
		}

		updates, dispose := hub.Subscribe(key)
		defer dispose()
		defer conn.Close()

		// Drain the reader so close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					dispose()
					return
				}
			}
		}()

		for selected := range updates {
			payload, err := json.Marshal(selectionUpdate{Key: key, Selected: selected})
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	})

	log.Printf("demo listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

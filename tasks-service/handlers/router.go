package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

/*
Routes wires the kanban API:

	GET    /boards                    summaries (search, sort, order)
	POST   /boards                    create
	GET    /boards/{id}               board with lists and cards
	PATCH  /boards/{id}               rename
	DELETE /boards/{id}
	GET    /boards/{id}/lists
	POST   /boards/{id}/lists
	POST   /boards/{id}/lists/reorder
	GET    /boards/{id}/cards         search, priority
	POST   /boards/{id}/export
	GET    /lists/{id}
	PATCH  /lists/{id}
	DELETE /lists/{id}
	GET    /lists/{id}/cards
	POST   /lists/{id}/cards
	GET    /cards/{id}
	PATCH  /cards/{id}
	DELETE /cards/{id}
	POST   /cards/{id}/move
	GET    /ws?board_id=
	GET    /metrics
*/
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}
	r.Use(cors.Handler(corsOptions(h.AllowedOrigins)))

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", h.listBoards)
			r.Post("/", h.createBoard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getBoard)
				r.Put("/", h.updateBoard)
				r.Patch("/", h.updateBoard)
				r.Delete("/", h.deleteBoard)
				r.Get("/lists", h.listLists)
				r.Post("/lists", h.createList)
				r.Post("/lists/reorder", h.reorderList)
				r.Get("/cards", h.listBoardCards)
				r.Post("/export", h.exportBoard)
			})
		})
		r.Route("/lists/{id}", func(r chi.Router) {
			r.Get("/", h.getList)
			r.Put("/", h.updateList)
			r.Patch("/", h.updateList)
			r.Delete("/", h.deleteList)
			r.Get("/cards", h.listCards)
			r.Post("/cards", h.createCard)
		})
		r.Route("/cards/{id}", func(r chi.Router) {
			r.Get("/", h.getCard)
			r.Put("/", h.updateCard)
			r.Patch("/", h.updateCard)
			r.Delete("/", h.deleteCard)
			r.Post("/move", h.moveCard)
		})
		r.Get("/ws", h.HandleWebSocket)
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}
}

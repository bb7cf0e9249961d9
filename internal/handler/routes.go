package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register mounts every API route on r. Routes other than /healthz run
// behind authn, which must put the caller ID in the request context.
func (s *Server) Register(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)

			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)

				r.Get("/places", s.ListPlaces)
				r.Post("/places", s.CreatePlace)
				r.Get("/places/{placeId}", s.GetPlace)
				r.Put("/places/{placeId}", s.UpdatePlace)
				r.Delete("/places/{placeId}", s.DeletePlace)

				r.Get("/timeline", s.GetTimeline)
				r.Post("/timeline", s.AddTimelineItem)
				r.Get("/timeline/export", s.ExportTimeline)
				r.Put("/timeline/{itemId}", s.UpdateTimelineItem)

				r.Put("/days", s.BulkUpdateDays)
			})
		})

		r.Delete("/timeline/{itemId}", s.DeleteTimelineItem)
	})
}

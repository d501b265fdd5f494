package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/cache"
	"github.com/AdamBeresnev/bracket-engine/internal/httputil"
	"github.com/AdamBeresnev/bracket-engine/internal/middleware"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type application struct {
	tournaments *service.TournamentService
	matches     *service.MatchService
	swiss       *service.SwissService
	cache       *cache.Cache
}

type topologyRequest struct {
	Format         bracket.Format `json:"format"`
	ParticipantIDs []uuid.UUID    `json:"participant_ids"`
}

type declarationRequest struct {
	TeamID        uuid.UUID `json:"team_id"`
	MyScore       int       `json:"my_score"`
	OpponentScore int       `json:"opponent_score"`
}

type matchResolutionRequest struct {
	ScoreP1 int `json:"score_p1"`
	ScoreP2 int `json:"score_p2"`
}

type gameResolutionRequest struct {
	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// invalidate drops the cached views of a tournament after a write.
func (app *application) invalidate(ctx context.Context, tournamentID uuid.UUID) {
	if err := app.cache.Invalidate(ctx, tournamentID); err != nil {
		slog.Warn("cache invalidation failed", "tournament_id", tournamentID, "error", err)
	}
}

func (app *application) invalidateForMatch(ctx context.Context, matchID uuid.UUID) {
	tournamentID, err := app.matches.TournamentOf(ctx, matchID)
	if err != nil {
		slog.Warn("cache invalidation failed", "match_id", matchID, "error", err)
		return
	}
	app.invalidate(ctx, tournamentID)
}

func newRouter(app *application, allowedOrigins []string, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.ReporterHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.LoadReporter)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var input service.TournamentInput
		if err := decode(r, &input); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		tournament, err := app.tournaments.CreateTournament(r.Context(), input)
		if err != nil {
			httputil.ServiceError(w, "Failed to create tournament", err)
			return
		}
		httputil.JSON(w, http.StatusCreated, tournament)
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			snapshot, err := cache.GetOrLoad(r.Context(), app.cache, id, "snapshot", func(ctx context.Context) (*service.Snapshot, error) {
				return app.tournaments.GetTournamentSnapshot(ctx, id)
			})
			if err != nil {
				httputil.ServiceError(w, "Failed to get tournament", err)
				return
			}
			httputil.JSON(w, http.StatusOK, snapshot)
		})

		r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			standings, err := cache.GetOrLoad(r.Context(), app.cache, id, "standings", func(ctx context.Context) ([]service.Standing, error) {
				return app.tournaments.Standings(ctx, id)
			})
			if err != nil {
				httputil.ServiceError(w, "Failed to get standings", err)
				return
			}
			httputil.JSON(w, http.StatusOK, standings)
		})

		r.Post("/topology", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			var req topologyRequest
			if err := decode(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			matches, err := app.tournaments.GenerateTopology(r.Context(), id, req.Format, req.ParticipantIDs)
			if err != nil {
				httputil.ServiceError(w, "Failed to generate topology", err)
				return
			}
			app.invalidate(r.Context(), id)
			httputil.JSON(w, http.StatusCreated, matches)
		})

		r.Post("/swiss/advance", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			pairing, err := app.swiss.AdvanceSwissRound(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to advance swiss round", err)
				return
			}
			app.invalidate(r.Context(), id)
			httputil.JSON(w, http.StatusOK, pairing)
		})
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			data, err := app.matches.GetMatchData(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to get match data", err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Post("/declarations", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			reporterID, ok := middleware.GetReporterIDFromContext(r.Context())
			if !ok {
				httputil.BadRequest(w, "Missing "+middleware.ReporterHeader+" header", nil)
				return
			}
			var req declarationRequest
			if err := decode(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			outcome, err := app.matches.DeclareScore(r.Context(), id, req.TeamID, req.MyScore, req.OpponentScore, reporterID)
			if err != nil {
				httputil.ServiceError(w, "Failed to declare score", err)
				return
			}
			app.invalidateForMatch(r.Context(), id)
			httputil.JSON(w, http.StatusOK, outcome)
		})

		r.Post("/games/{number}/declarations", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			number, err := strconv.Atoi(chi.URLParam(r, "number"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game number", err)
				return
			}
			reporterID, ok := middleware.GetReporterIDFromContext(r.Context())
			if !ok {
				httputil.BadRequest(w, "Missing "+middleware.ReporterHeader+" header", nil)
				return
			}
			var req declarationRequest
			if err := decode(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			outcome, err := app.matches.DeclareGameScore(r.Context(), id, number, req.TeamID, req.MyScore, req.OpponentScore, reporterID)
			if err != nil {
				httputil.ServiceError(w, "Failed to declare game score", err)
				return
			}
			app.invalidateForMatch(r.Context(), id)
			httputil.JSON(w, http.StatusOK, outcome)
		})

		r.Post("/resolution", func(w http.ResponseWriter, r *http.Request) {
			id, err := idParam(r)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			var req matchResolutionRequest
			if err := decode(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if err := app.matches.ResolveDispute(r.Context(), id, req.ScoreP1, req.ScoreP2); err != nil {
				httputil.ServiceError(w, "Failed to resolve dispute", err)
				return
			}
			app.invalidateForMatch(r.Context(), id)
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Post("/games/{id}/resolution", func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			httputil.BadRequest(w, "Invalid game ID", err)
			return
		}
		var req gameResolutionRequest
		if err := decode(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if err := app.matches.ResolveGameDispute(r.Context(), id, req.Team1Score, req.Team2Score); err != nil {
			httputil.ServiceError(w, "Failed to resolve game dispute", err)
			return
		}
		if tournamentID, err := app.matches.TournamentOfGame(r.Context(), id); err == nil {
			app.invalidate(r.Context(), tournamentID)
		} else {
			slog.Warn("cache invalidation failed", "game_id", id, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/compass/aggregate"
	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/consensus"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/handlers"
	"github.com/danielhkuo/compass/middleware"
)

func NewRouter(store *db.Store, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	agg := aggregate.NewAggregator(store, aggregate.DefaultConcurrency)
	engine := consensus.NewEngine(store, agg, cfg.MaxRetries)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.AdminKeySalt)
	limiter.TrustProxy = cfg.TrustProxy

	// Initialize handlers
	questionHandler := handlers.NewQuestionHandler(store, agg, cfg)
	quizHandler := handlers.NewQuizHandler(store)
	iconHandler := handlers.NewIconHandler(store, engine, agg, cfg)
	answerHandler := handlers.NewAnswerHandler(engine, cfg)

	// public writes are logged and rate limited per client
	write := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(limiter.Limit(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Questions (admin writes)
	mux.HandleFunc("GET /questions", middleware.WithLogging(questionHandler.ListQuestions))
	mux.HandleFunc("POST /questions", middleware.WithLogging(questionHandler.CreateQuestion))
	mux.HandleFunc("PUT /questions/{id}", middleware.WithLogging(questionHandler.UpdateQuestion))
	mux.HandleFunc("DELETE /questions/{id}", middleware.WithLogging(questionHandler.DeleteQuestion))

	// Quiz scoring
	mux.HandleFunc("POST /quiz/score", write(quizHandler.ScoreQuiz))

	// Icons
	mux.HandleFunc("POST /icons", write(iconHandler.CreateIcon))
	mux.HandleFunc("GET /icons", middleware.WithLogging(iconHandler.ListIcons))
	mux.HandleFunc("GET /icons/{id}", middleware.WithLogging(iconHandler.GetIcon))
	mux.HandleFunc("DELETE /icons/{id}", middleware.WithLogging(iconHandler.DeleteIcon))
	mux.HandleFunc("POST /icons/{id}/recompute", middleware.WithLogging(iconHandler.RecomputeIcon))
	mux.HandleFunc("GET /icons/{id}/answers", middleware.WithLogging(iconHandler.ListAnswers))
	mux.HandleFunc("POST /icons/{id}/answers", write(iconHandler.SubmitAnswer))

	// Answers and voting
	mux.HandleFunc("PUT /answers/{id}", write(answerHandler.UpdateAnswer))
	mux.HandleFunc("DELETE /answers/{id}", middleware.WithLogging(answerHandler.DeleteAnswer))
	mux.HandleFunc("POST /answers/{id}/votes", write(answerHandler.RecordVote))
	mux.HandleFunc("GET /answers/{id}/votes/me", middleware.WithLogging(answerHandler.GetMyVote))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("compass API v1"))
	})

	return mux
}

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition labels for review_transitions_total.
const (
	transitionEdited             = "edited"
	transitionDeletedByUser      = "deleted_by_user"
	transitionDeletedByModerator = "deleted_by_moderator"
	transitionReported           = "reported"
)

var (
	reviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Reviews created.",
	})

	reviewTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_transitions_total",
		Help: "Committed review edits, deletions and reports.",
	}, []string{"transition"})

	reviewVotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_votes_total",
		Help: "Helpfulness votes recorded, by value.",
	}, []string{"value"})

	ratingRecomputationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_recomputations_total",
		Help: "Product rating summaries recomputed.",
	})
)

package services

import "github.com/prometheus/client_golang/prometheus"

var (
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Challenge completion attempts by outcome (awarded or repeat)",
		},
		[]string{"result"},
	)
	leaderboardResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_resets_total",
			Help: "Weekly leaderboard reset attempts by outcome (reset or skipped)",
		},
		[]string{"result"},
	)
	usersResetLast = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaderboard_users_reset_last",
			Help: "Number of users zeroed by the most recent weekly reset",
		},
	)
)

// InitMetrics registers the engine metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(completionsTotal)
	prometheus.MustRegister(leaderboardResetsTotal)
	prometheus.MustRegister(usersResetLast)
}

package controllers

import (
	"net/http"
	"time"

	"github.com/devmarked/feedbackiq/services"
	"gorm.io/gorm"
)

// Shared service instances, wired once at startup (and per-test in the
// controller tests).
var (
	store       *services.Store
	appGate     *services.Gate
	insightSvc  *services.InsightService
	sessionsSvc *services.SessionStore
)

// Init wires the service layer over the database handle.
func Init(db *gorm.DB) {
	store = services.NewStore(db)
	appGate = services.NewGate(store, services.GateCacheTTL)
	insightSvc = services.NewInsightService(store, &http.Client{Timeout: 60 * time.Second})
	sessionsSvc = services.NewSessionStore(30 * time.Minute)
}

// Gate exposes the shared gate evaluator for route middleware.
func Gate() *services.Gate { return appGate }

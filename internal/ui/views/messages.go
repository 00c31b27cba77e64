package views

import (
	"github.com/tgienger/lumina/internal/insights"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/state"
)

// Intents sent from the views to the app

type SignInRequested struct {
	Email    string
	Password string
}

type RegisterRequested struct {
	Name     string
	Email    string
	Password string
}

type GoogleRequested struct{}

type GoogleCancelRequested struct{}

type SelectView struct {
	View state.View
}

type SelectFilter struct {
	Filter state.Filter
}

type ToggleTask struct {
	ID string
}

type CreateTask struct {
	Draft models.Task
}

type CreateWorkspace struct {
	Name string
	Icon string
}

type CreateCategory struct {
	Name  string
	Color string
}

type DismissBanner struct{}

type GenerateInsights struct{}

type Logout struct{}

// Results sent from the app back to the views

// AuthFinished ends a sign-in, registration or Google attempt
type AuthFinished struct {
	VerifyEmail string
	Err         error
}

// TaskCreated reports the outcome of a CreateTask
type TaskCreated struct {
	Err error
}

// InsightReady carries a finished analysis, possibly the fallback pair
type InsightReady struct {
	Insight insights.Insight
}

package generator

import "context"

// GeneratedTask is one task definition produced by the content generator.
type GeneratedTask struct {
	Name            string `json:"name"`
	Details         string `json:"details"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        int    `json:"priority"`
	Recurring       bool   `json:"recurring"`
	Indefinite      bool   `json:"indefinite"`
}

// GeneratedPlan is the content generator's answer for one goal.
type GeneratedPlan struct {
	GoalTitle    string          `json:"goal_title"`
	PlanSummary  string          `json:"plan_summary"`
	TimelineDays int             `json:"timeline_days"`
	Tasks        []GeneratedTask `json:"tasks"`
}

// ContentGenerator produces task definitions for a goal. The AI behind it is
// an external collaborator; this engine only places the results into time.
type ContentGenerator interface {
	Generate(ctx context.Context, goal string) (*GeneratedPlan, error)
}

// Package domain holds the plan import model: the uploaded plan file, the
// records sent upstream, and the gateway that sends them.
package domain

import (
	"context"
	"encoding/json"
)

// PlanTransfer is an exported plan file. It lives for one import request.
type PlanTransfer struct {
	ID                  int              `json:"id"`
	Name                string           `json:"name"`
	ModelID             int              `json:"model_id"`
	StartTime           string           `json:"start_time"`
	EndTime             string           `json:"end_time"`
	Duration            string           `json:"duration"`
	Activities          []ActivityRecord `json:"activities"`
	SimulationArguments json.RawMessage  `json:"simulation_arguments"`
}

// ActivityRecord is one activity as found in the file. ID and AnchorID are
// local to the file.
type ActivityRecord struct {
	ID              int             `json:"id"`
	AnchorID        *int            `json:"anchor_id"`
	AnchoredToStart bool            `json:"anchored_to_start"`
	Arguments       json.RawMessage `json:"arguments"`
	Metadata        json.RawMessage `json:"metadata"`
	Name            string          `json:"name"`
	StartOffset     string          `json:"start_offset"`
	Type            string          `json:"type"`
	Tags            []ActivityTag   `json:"tags"`
}

type ActivityTag struct {
	Tag TagInsert `json:"tag"`
}

type TagInsert struct {
	Color *string `json:"color"`
	Name  string  `json:"name"`
}

type Tag struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	CreatedAt string  `json:"created_at,omitempty"`
	Owner     *string `json:"owner,omitempty"`
}

type PlanInsert struct {
	Duration  string `json:"duration"`
	ModelID   int    `json:"model_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
}

type Collaborator struct {
	Collaborator string `json:"collaborator"`
}

type SimulationRef struct {
	ID int `json:"id"`
}

// Plan is the created plan as returned upstream and to the caller.
type Plan struct {
	ID            int             `json:"id"`
	CreatedAt     string          `json:"created_at"`
	Collaborators []Collaborator  `json:"collaborators"`
	Duration      string          `json:"duration"`
	Owner         *string         `json:"owner"`
	Revision      int             `json:"revision"`
	StartTime     string          `json:"start_time"`
	Simulations   []SimulationRef `json:"simulations"`
}

type SimulationUpdate struct {
	Arguments            json.RawMessage `json:"arguments,omitempty"`
	SimulationTemplateID *int            `json:"simulation_template_id"`
}

type DirectiveTag struct {
	TagID int `json:"tag_id"`
}

type DirectiveTags struct {
	Data []DirectiveTag `json:"data"`
}

type ActivityDirectiveInsert struct {
	AnchorID        *int            `json:"anchor_id"`
	AnchoredToStart bool            `json:"anchored_to_start"`
	Arguments       json.RawMessage `json:"arguments,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Name            string          `json:"name"`
	PlanID          int             `json:"plan_id"`
	StartOffset     string          `json:"start_offset"`
	Tags            DirectiveTags   `json:"tags"`
	Type            string          `json:"type"`
}

type ActivityDirective struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// AnchorUpdate points directive DirectiveID of plan PlanID at AnchorID.
type AnchorUpdate struct {
	DirectiveID int
	PlanID      int
	AnchorID    int
}

type PlanTagInsert struct {
	PlanID int `json:"plan_id"`
	TagID  int `json:"tag_id"`
}

// IdentifierRemap maps file-local activity ids to server directive ids.
type IdentifierRemap map[int]int

// TagStore is the part of the gateway the tag reconciler needs.
type TagStore interface {
	GetTags(ctx context.Context) ([]Tag, error)
	CreateTags(ctx context.Context, tags []TagInsert) ([]Tag, error)
}

// Gateway is the upstream API as seen by the plan importer. Every call
// forwards the caller identity carried by ctx.
type Gateway interface {
	TagStore
	CreatePlan(ctx context.Context, plan PlanInsert) (*Plan, error)
	UpdateSimulation(ctx context.Context, planID int, sim SimulationUpdate) (int, error)
	CreateActivityDirectives(ctx context.Context, directives []ActivityDirectiveInsert) ([]ActivityDirective, error)
	UpdateActivityDirectives(ctx context.Context, updates []AnchorUpdate) (int, error)
	CreatePlanTags(ctx context.Context, tags []PlanTagInsert) (int, error)
	DeletePlan(ctx context.Context, id int) error
	DeleteTags(ctx context.Context, ids []int) (int, error)
}

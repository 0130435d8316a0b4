package services

import (
	"context"
	"fmt"

	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

// RequiredTags collects the distinct tags referenced by activities, keyed by
// name. A name seen twice keeps the color of its last occurrence; the
// result is ordered by first appearance.
func RequiredTags(activities []domain.ActivityRecord) []domain.TagInsert {
	index := make(map[string]int)
	var out []domain.TagInsert
	for _, a := range activities {
		for _, t := range a.Tags {
			if i, ok := index[t.Tag.Name]; ok {
				out[i].Color = t.Tag.Color
				continue
			}
			index[t.Tag.Name] = len(out)
			out = append(out, t.Tag)
		}
	}
	return out
}

// TagReconciliation is the outcome of one reconcile pass. Created holds only
// the tags this pass inserted; it is what compensation may delete.
type TagReconciliation struct {
	ByName  map[string]domain.Tag
	Created []domain.Tag
}

// CreatedIDs returns the ids of the tags this pass inserted.
func (r *TagReconciliation) CreatedIDs() []int {
	ids := make([]int, 0, len(r.Created))
	for _, t := range r.Created {
		ids = append(ids, t.ID)
	}
	return ids
}

type TagReconciler struct {
	store domain.TagStore
}

func NewTagReconciler(store domain.TagStore) *TagReconciler {
	return &TagReconciler{store: store}
}

// Reconcile makes sure every required tag exists upstream. Tags are matched
// by name only, so an existing tag is reused even when its color differs.
// The missing ones are created in a single bulk call.
//
// The returned reconciliation is non-nil whenever tags were created, even
// when an error is also returned, so callers can compensate.
func (r *TagReconciler) Reconcile(ctx context.Context, required []domain.TagInsert) (*TagReconciliation, error) {
	res := &TagReconciliation{ByName: make(map[string]domain.Tag)}
	if len(required) == 0 {
		return res, nil
	}

	existing, err := r.store.GetTags(ctx)
	if err != nil {
		return res, serrors.Upstream("TAGS_FETCH_FAILED", err, "fetch tags")
	}
	for _, t := range existing {
		res.ByName[t.Name] = t
	}

	seen := make(map[string]struct{}, len(required))
	var missing []domain.TagInsert
	for _, t := range required {
		if _, ok := res.ByName[t.Name]; ok {
			continue
		}
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		return res, nil
	}

	created, err := r.store.CreateTags(ctx, missing)
	if err != nil {
		return res, serrors.Upstream("TAGS_CREATE_FAILED", err, "create tags")
	}
	res.Created = created
	for _, t := range created {
		res.ByName[t.Name] = t
	}
	if len(created) != len(missing) {
		return res, serrors.New(serrors.KindCountMismatch, "TAGS_CREATE_FAILED",
			fmt.Sprintf("tag creation returned %d of %d tags", len(created), len(missing)))
	}
	return res, nil
}

package upstream

import "github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"

var (
	opCreatePlan = hasura.MustOperation("CreatePlan", `
mutation CreatePlan($plan: plan_insert_input!) {
  createPlan: insert_plan_one(object: $plan) {
    created_at
    collaborators {
      collaborator
    }
    duration
    id
    owner
    revision
    start_time
    simulations {
      id
    }
  }
}`)

	opUpdateSimulation = hasura.MustOperation("UpdateSimulation", `
mutation UpdateSimulation($plan_id: Int!, $simulation: simulation_set_input!) {
  update_simulation(where: { plan_id: { _eq: $plan_id } }, _set: $simulation) {
    returning {
      id
    }
  }
}`)

	opGetTags = hasura.MustOperation("GetTags", `
query GetTags {
  tags(order_by: { name: desc }) {
    color
    created_at
    id
    name
    owner
  }
}`)

	opCreateTags = hasura.MustOperation("CreateTags", `
mutation CreateTags($tags: [tags_insert_input!]!) {
  insert_tags(objects: $tags) {
    returning {
      color
      created_at
      id
      name
      owner
    }
  }
}`)

	opCreateActivityDirectives = hasura.MustOperation("CreateActivityDirectives", `
mutation CreateActivityDirectives($activityDirectivesInsertInput: [activity_directive_insert_input!]!) {
  insert_activity_directive(objects: $activityDirectivesInsertInput) {
    returning {
      id
      type
    }
  }
}`)

	opUpdateActivityDirectives = hasura.MustOperation("UpdateActivityDirectives", `
mutation UpdateActivityDirectives($updates: [activity_directive_updates!]!) {
  update_activity_directive_many(updates: $updates) {
    affected_rows
  }
}`)

	opCreatePlanTags = hasura.MustOperation("CreatePlanTags", `
mutation CreatePlanTags($tags: [plan_tags_insert_input!]!) {
  insert_plan_tags(objects: $tags, on_conflict: { constraint: plan_tags_pkey, update_columns: [] }) {
    affected_rows
  }
}`)

	opDeletePlan = hasura.MustOperation("DeletePlan", `
mutation DeletePlan($id: Int!) {
  deletePlan: delete_plan_by_pk(id: $id) {
    id
  }
}`)

	opDeleteTags = hasura.MustOperation("DeleteTags", `
mutation DeleteTags($tagIds: [Int!]! = []) {
  delete_tags(where: { id: { _in: $tagIds } }) {
    affected_rows
  }
}`)
)

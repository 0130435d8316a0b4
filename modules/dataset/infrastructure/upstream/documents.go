package upstream

import "github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"

var (
	opAddExternalDataset = hasura.MustOperation("AddExternalDataset", `
mutation AddExternalDataset(
  $planId: Int!
  $simulationDatasetId: Int
  $datasetStart: String!
  $profileSet: ProfileSet!
) {
  addExternalDataset(
    planId: $planId
    simulationDatasetId: $simulationDatasetId
    datasetStart: $datasetStart
    profileSet: $profileSet
  ) {
    datasetId
  }
}`)

	opExtendExternalDataset = hasura.MustOperation("ExtendExternalDataset", `
mutation ExtendExternalDataset($datasetId: Int!, $profileSet: ProfileSet!) {
  extendExternalDataset(datasetId: $datasetId, profileSet: $profileSet) {
    datasetId
  }
}`)

	// Removing the plan association drops the dataset and its profiles.
	opDeleteExternalDataset = hasura.MustOperation("DeleteExternalDataset", `
mutation DeleteExternalDataset($datasetId: Int!) {
  deleteExternalDataset: delete_plan_dataset(where: { dataset_id: { _eq: $datasetId } }) {
    affected_rows
  }
}`)
)

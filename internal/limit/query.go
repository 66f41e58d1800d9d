// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

const (
	updateRegisteredLimitQuery = `
update registered_limit
   set service_id = ?,
       region_id = ?,
       resource_name = ?,
       default_limit = ?,
       description = ?
 where id = ?
`
	updateLimitQuery = `
update project_limit
   set resource_limit = ?,
       description = ?
 where id = ?
`
	matchingRegisteredLimitWhere = `service_id = ? and coalesce(region_id, '') = ? and resource_name = ?`
	referencingLimitWhere        = `registered_limit_id = ?`
)

var (
	registeredLimitFilterColumns = []string{"service_id", "region_id", "resource_name"}
	limitFilterColumns           = []string{"service_id", "region_id", "resource_name", "project_id"}
)

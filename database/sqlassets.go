package sqlassets

import _ "embed"

//go:embed schema/platform/admin_users.sql
var AdminUsersSQL string

//go:embed schema/platform/organizations.sql
var OrganizationsSQL string

// CollectionTableSQL is a template; the single %s verb receives the sanitized, schema-qualified table name.
//
//go:embed schema/tenant_data/collection.sql
var CollectionTableSQL string

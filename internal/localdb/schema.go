package localdb

// Table names held by the store.
const (
	TableProjects    = "projects"
	TableTasks       = "tasks"
	TableEstimations = "estimations"
)

// Column names shared by every table.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
)

var tableNames = []string{TableProjects, TableTasks, TableEstimations}

// columnDefaults are applied on insert to columns the row leaves out.
var columnDefaults = map[string]Row{
	TableProjects: {
		"description":      nil,
		"is_completed":     false,
		"final_estimation": nil,
	},
	TableTasks: {
		"description":      nil,
		"is_completed":     false,
		"final_estimation": nil,
		"show_estimations": false,
	},
	TableEstimations: {
		"is_custom": false,
	},
}

func knownTable(name string) bool {
	for _, t := range tableNames {
		if t == name {
			return true
		}
	}
	return false
}

type relation struct {
	table      string
	foreignKey string
	parent     string
}

// relations lists the foreign keys a join token can follow. Parents are
// matched on their id column.
var relations = []relation{
	{table: TableTasks, foreignKey: "project_id", parent: TableProjects},
	{table: TableEstimations, foreignKey: "task_id", parent: TableTasks},
}

func findRelation(table, parent string) (relation, bool) {
	for _, r := range relations {
		if r.table == table && r.parent == parent {
			return r, true
		}
	}
	return relation{}, false
}

package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names used by the repositories.
const (
	tableModules      = "modules"
	tableDependencies = "dependencies"
	tableProgress     = "progress"
	tableAssessments  = "assessments"
	tableLLMEvents    = "llm_request_events"
)

var (
	moduleColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "code", Type: field.TypeString, Unique: true},
		{Name: "title", Type: field.TypeString},
		{Name: "slug", Type: field.TypeString, Unique: true},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "kind", Type: field.TypeString, Default: "presenza"},
		{Name: "difficulty", Type: field.TypeString, Default: "base"},
		{Name: "estimated_mins", Type: field.TypeInt, Default: 60},
		{Name: "tools", Type: field.TypeJSON, Nullable: true},
		{Name: "outcomes", Type: field.TypeJSON, Nullable: true},
		{Name: "skill_tags", Type: field.TypeJSON, Nullable: true},
		{Name: "criteria", Type: field.TypeJSON, Nullable: true},
		{Name: "teaching_area", Type: field.TypeString, Default: ""},
		{Name: "level", Type: field.TypeInt, Default: 0},
		{Name: "content_path", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	modulesTable = &schema.Table{
		Name:       tableModules,
		Columns:    moduleColumns,
		PrimaryKey: []*schema.Column{moduleColumns[0]},
		Indexes: []*schema.Index{
			{Name: "module_level_code", Columns: []*schema.Column{moduleColumns[13], moduleColumns[1]}},
			{Name: "module_teaching_area", Columns: []*schema.Column{moduleColumns[12]}},
		},
	}

	dependencyColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "prerequisite_id", Type: field.TypeString},
		{Name: "dependency_type", Type: field.TypeEnum, Enums: []string{"mandatory", "recommended"}, Default: "mandatory"},
		{Name: "created_at", Type: field.TypeTime},
	}
	dependenciesTable = &schema.Table{
		Name:       tableDependencies,
		Columns:    dependencyColumns,
		PrimaryKey: []*schema.Column{dependencyColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "dependencies_modules_module",
				Columns:    []*schema.Column{dependencyColumns[1]},
				RefColumns: []*schema.Column{moduleColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "dependencies_modules_prerequisite",
				Columns:    []*schema.Column{dependencyColumns[2]},
				RefColumns: []*schema.Column{moduleColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "dependency_module_id_prerequisite_id", Unique: true, Columns: []*schema.Column{dependencyColumns[1], dependencyColumns[2]}},
			{Name: "dependency_prerequisite_id", Columns: []*schema.Column{dependencyColumns[2]}},
		},
	}

	progressColumns = []*schema.Column{
		{Name: "module_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Default: "not-started"},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "score", Type: field.TypeInt, Nullable: true},
		{Name: "notes", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	progressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "progress_modules_progress",
				Columns:    []*schema.Column{progressColumns[0]},
				RefColumns: []*schema.Column{moduleColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "progress_status", Columns: []*schema.Column{progressColumns[1]}},
		},
	}

	assessmentColumns = []*schema.Column{
		{Name: "module_id", Type: field.TypeString},
		{Name: "evaluator", Type: field.TypeString, Default: ""},
		{Name: "practical_applied", Type: field.TypeBool, Default: false},
		{Name: "result_quality", Type: field.TypeString, Default: ""},
		{Name: "satisfaction_level", Type: field.TypeInt, Default: 0},
		{Name: "notes", Type: field.TypeString, Default: ""},
		{Name: "evaluated_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	assessmentsTable = &schema.Table{
		Name:       tableAssessments,
		Columns:    assessmentColumns,
		PrimaryKey: []*schema.Column{assessmentColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "assessments_modules_assessment",
				Columns:    []*schema.Column{assessmentColumns[0]},
				RefColumns: []*schema.Column{moduleColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventColumns[1]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventColumns[4]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{llmEventColumns[8]}},
		},
	}

	// tables lists every table in creation order.
	tables = []*schema.Table{
		modulesTable,
		dependenciesTable,
		progressTable,
		assessmentsTable,
		llmEventsTable,
	}
)

func init() {
	dependenciesTable.ForeignKeys[0].RefTable = modulesTable
	dependenciesTable.ForeignKeys[1].RefTable = modulesTable
	progressTable.ForeignKeys[0].RefTable = modulesTable
	assessmentsTable.ForeignKeys[0].RefTable = modulesTable
}

package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	tableUsers       = "users"
	tableSessions    = "quiz_sessions"
	tableQuestions   = "questions"
	tableEntries     = "leaderboard_entries"
	tableQuarantine  = "leaderboard_quarantine"
	tableProfiles    = "adaptive_profiles"
	tableLLMRequests = "llm_requests"
)

const textSize = 1 << 20

var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "username", Type: field.TypeString, Unique: true},
		{Name: "skill", Type: field.TypeString},
		{Name: "role", Type: field.TypeString, Default: "student"},
		{Name: "created_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       tableUsers,
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "skill_level", Type: field.TypeString},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "custom_topic_text", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "completed_questions", Type: field.TypeInt, Default: 0},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		{Name: "score_percentage", Type: field.TypeFloat64, Default: 0},
		{Name: "total_time_seconds", Type: field.TypeFloat64, Default: 0},
		{Name: "status", Type: field.TypeString},
		{Name: "adaptive", Type: field.TypeBool, Default: false},
		{Name: "degraded", Type: field.TypeBool, Default: false},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "last_activity_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "quiz_sessions_users_sessions",
				Columns:    []*schema.Column{sessionsColumns[1]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "quizsession_user_id_topic_skill_level",
				Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[2], sessionsColumns[3]},
			},
			{
				Name:    "quizsession_status_last_activity_at",
				Columns: []*schema.Column{sessionsColumns[10], sessionsColumns[14]},
			},
		},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "question_text", Type: field.TypeString, Size: textSize},
		{Name: "type", Type: field.TypeString},
		{Name: "options", Type: field.TypeJSON, Nullable: true},
		{Name: "correct_answer", Type: field.TypeString, Size: textSize},
		{Name: "explanation", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "difficulty_level", Type: field.TypeString},
		{Name: "difficulty_weight", Type: field.TypeFloat64},
		{Name: "classification", Type: field.TypeJSON, Nullable: true},
		{Name: "fallback", Type: field.TypeBool, Default: false},
		{Name: "user_answer", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "is_correct", Type: field.TypeBool, Nullable: true},
		{Name: "answered_at", Type: field.TypeTime, Nullable: true},
		{Name: "time_taken_seconds", Type: field.TypeFloat64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	questionsTable = &schema.Table{
		Name:       tableQuestions,
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_quiz_sessions_questions",
				Columns:    []*schema.Column{questionsColumns[1]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "question_session_id_position",
				Unique:  true,
				Columns: []*schema.Column{questionsColumns[1], questionsColumns[2]},
			},
		},
	}

	entriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "quiz_session_id", Type: field.TypeString, Unique: true},
		{Name: "topic", Type: field.TypeString},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "correct_count", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "time_taken_seconds", Type: field.TypeFloat64},
		{Name: "avg_difficulty_weight", Type: field.TypeFloat64},
		{Name: "rank", Type: field.TypeInt, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime},
	}
	entriesTable = &schema.Table{
		Name:       tableEntries,
		Columns:    entriesColumns,
		PrimaryKey: []*schema.Column{entriesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "leaderboard_entries_users_entries",
				Columns:    []*schema.Column{entriesColumns[1]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "leaderboard_entries_quiz_sessions_entry",
				Columns:    []*schema.Column{entriesColumns[2]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "leaderboardentry_topic_rank",
				Columns: []*schema.Column{entriesColumns[3], entriesColumns[9]},
			},
		},
	}

	quarantineColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "quiz_session_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "reason", Type: field.TypeString, Size: textSize},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	quarantineTable = &schema.Table{
		Name:       tableQuarantine,
		Columns:    quarantineColumns,
		PrimaryKey: []*schema.Column{quarantineColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "leaderboard_quarantine_quiz_sessions_quarantine",
				Columns:    []*schema.Column{quarantineColumns[1]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "leaderboard_quarantine_users_quarantine",
				Columns:    []*schema.Column{quarantineColumns[2]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	profilesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "current_difficulty", Type: field.TypeString},
		{Name: "state", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profilesTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    profilesColumns,
		PrimaryKey: []*schema.Column{profilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "adaptive_profiles_users_profile",
				Columns:    []*schema.Column{profilesColumns[0]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	llmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
	}
	llmRequestsTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequest_purpose",
				Columns: []*schema.Column{llmRequestsColumns[4]},
			},
		},
	}

	// tables lists every table in creation order.
	tables = []*schema.Table{
		usersTable,
		sessionsTable,
		questionsTable,
		entriesTable,
		quarantineTable,
		profilesTable,
		llmRequestsTable,
	}
)

func init() {
	sessionsTable.ForeignKeys[0].RefTable = usersTable
	questionsTable.ForeignKeys[0].RefTable = sessionsTable
	entriesTable.ForeignKeys[0].RefTable = usersTable
	entriesTable.ForeignKeys[1].RefTable = sessionsTable
	quarantineTable.ForeignKeys[0].RefTable = sessionsTable
	quarantineTable.ForeignKeys[1].RefTable = usersTable
	profilesTable.ForeignKeys[0].RefTable = usersTable
}

package interview

import "time"

// Interview is one dated visit to a family.
type Interview struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	FamilyID        int64      `gorm:"column:familia_id;not null;index"`
	Date            time.Time  `gorm:"column:data_entrevista;type:date;not null"`
	IntervieweeName string     `gorm:"column:entrevistado"`
	ContactPhone    string     `gorm:"column:telefone_contato"`
	Notes           string     `gorm:"column:observacoes"`
	NextVisit       *time.Time `gorm:"column:proxima_visita;type:date"`
	AuditUser       string     `gorm:"column:usuario"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Interview) TableName() string   { return "entrevista" }
func (Interview) OwnerColumn() string { return "familia_id" }

// InterviewMonitor links an interview to the monitor who conducted it.
type InterviewMonitor struct {
	ID          int64 `gorm:"column:id;primaryKey"`
	InterviewID int64 `gorm:"column:entrevista_id;not null;index"`
	MonitorID   int64 `gorm:"column:monitor_id;not null"`
}

func (InterviewMonitor) TableName() string   { return "entrevista_monitor" }
func (InterviewMonitor) OwnerColumn() string { return "entrevista_id" }

type MonitorRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Record is an interview joined with its family name and linked monitors.
type Record struct {
	Interview
	FamilyName string
	Monitors   []MonitorRef
}

type FamilyRef struct {
	ID   int64
	Name string
}

type MemberRef struct {
	ID        int64
	FamilyID  int64
	Name      string
	Relation  string
	BirthDate *time.Time
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCritical  Status = "CRITICAL"
	StatusAlert     Status = "ALERT"
	StatusAttention Status = "ATTENTION"
	StatusUpToDate  Status = "UP_TO_DATE"
)

type ResponsibleMember struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

type LastInterview struct {
	ID              int64        `json:"id"`
	Date            string       `json:"date"`
	IntervieweeName string       `json:"intervieweeName"`
	ContactPhone    string       `json:"contactPhone"`
	Notes           string       `json:"notes"`
	NextVisit       string       `json:"nextVisit"`
	Monitors        []MonitorRef `json:"monitors"`
}

type FamilySummary struct {
	FamilyID           int64              `json:"familyId"`
	FamilyName         string             `json:"familyName"`
	Responsible        *ResponsibleMember `json:"responsible"`
	LastInterview      *LastInterview     `json:"lastInterview"`
	TotalInterviews    int                `json:"totalInterviews"`
	DaysSinceLast      *int               `json:"daysSinceLast"`
	DaysUntilNextVisit *int               `json:"daysUntilNextVisit"`
	Status             Status             `json:"status"`
}

type Metrics struct {
	TotalFamilies             int `json:"totalFamilies"`
	FamiliesWithInterviews    int `json:"familiesWithInterviews"`
	FamiliesWithoutInterviews int `json:"familiesWithoutInterviews"`
	TotalInterviews           int `json:"totalInterviews"`
	InterviewsLast30Days      int `json:"interviewsLast30Days"`
	InterviewsThisYear        int `json:"interviewsThisYear"`
	Critical                  int `json:"critical"`
	AlertOrAttention          int `json:"alertOrAttention"`
}

type SummaryResult struct {
	Families []FamilySummary `json:"families"`
	Metrics  Metrics         `json:"metrics"`
}

const (
	EventHeld      = "held"
	EventScheduled = "scheduled"

	TagRecent   = "recent"
	TagHistoric = "historic"
	TagOverdue  = "overdue"
	TagSoon     = "soon"
	TagPlanned  = "planned"
)

type CalendarEvent struct {
	ID              string `json:"id"`
	InterviewID     int64  `json:"interviewId"`
	FamilyID        int64  `json:"familyId"`
	FamilyName      string `json:"familyName"`
	Kind            string `json:"kind"`
	Tag             string `json:"tag"`
	Date            string `json:"date"`
	IntervieweeName string `json:"intervieweeName"`
	ContactPhone    string `json:"contactPhone"`
	MonitorNames    string `json:"monitorNames"`
	MonitorEmails   string `json:"monitorEmails"`
	DayOffset       int    `json:"dayOffset"`
}

type RegisterInput struct {
	Date            string
	IntervieweeName string
	ContactPhone    string
	Notes           string
	NextVisit       string
	MonitorIDs      []int64
}

type RegisterResult struct {
	Interview Interview
	Linked    []int64
	Warnings  []string
}

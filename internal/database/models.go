package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string
	FullName          string
	Phone             *string
	Address           *string
	DateOfBirth       *time.Time
	Role              string
	Status            string
	IsActive          bool
	IsVerified        bool
	VerificationToken *string
	VerifiedAt        *time.Time
	PasswordChangedAt *time.Time
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DeviceInfo *string
	IPAddress  *string
	IsActive   bool
	CreatedAt  time.Time
}

type PaymentMethod struct {
	ID         int32
	Name       string
	Code       string
	IsActive   bool
	FeePercent decimal.Decimal
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	Config     []byte
}

type Transaction struct {
	ID                   uuid.UUID
	TransactionRef       string
	UserID               uuid.UUID
	Amount               decimal.Decimal
	Currency             string
	PaymentMethod        string
	Description          *string
	Status               string
	GatewayTransactionID *string
	GatewayResponse      []byte
	ExpiresAt            *time.Time
	CreatedAt            time.Time
	CompletedAt          *time.Time
	FailedAt             *time.Time
	CancelledAt          *time.Time
}

type Balance struct {
	UserID         uuid.UUID
	CurrentBalance decimal.Decimal
	TotalDeposited decimal.Decimal
	TotalSpent     decimal.Decimal
	UpdatedAt      time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description *string
	ParentID    *uuid.UUID
	SortOrder   int32
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Article struct {
	ID                 uuid.UUID
	Title              string
	Slug               string
	Excerpt            string
	Content            string
	AuthorID           uuid.UUID
	AuthorName         string
	CategoryID         *uuid.UUID
	Tags               []string
	Status             string
	FeaturedImage      *string
	SEOTitle           string
	SEODescription     string
	ViewCount          int64
	LikeCount          int64
	CommentCount       int64
	ReadingTimeMinutes int32
	PublishedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

type Tag struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
	Slug        string
	Color       string
	UsageCount  int64
	CreatedAt   time.Time
}

type Comment struct {
	ID        uuid.UUID
	ArticleID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	ParentID  *uuid.UUID
	Content   string
	Status    string
	LikeCount int64
	CreatedAt time.Time
}

type SolveRecord struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ProblemType   string
	Input         string
	ResultSummary string
	SolvingTimeMs float64
	Success       bool
	CreatedAt     time.Time
}

type AuditLog struct {
	ID            uuid.UUID
	AuditID       string
	UserID        uuid.UUID
	Action        string
	Resource      string
	RiskLevel     string
	Details       []byte
	IPAddress     string
	UserAgent     string
	IntegrityHash string
	CreatedAt     time.Time
}

type SystemEvent struct {
	ID            uuid.UUID
	EventType     string
	Severity      string
	Component     string
	Message       string
	Metadata      []byte
	EventHash     string
	RequiresAlert bool
	CreatedAt     time.Time
}

type SecurityEvent struct {
	ID                    uuid.UUID
	EventType             string
	Category              string
	Severity              string
	UserID                *uuid.UUID
	IPAddress             string
	Details               []byte
	ComplianceTags        []string
	RequiresInvestigation bool
	SecurityHash          string
	CreatedAt             time.Time
}

type Backup struct {
	ID             uuid.UUID
	BackupType     string
	Status         string
	SizeBytes      int64
	Location       string
	InitiatedBy    uuid.UUID
	RetentionUntil time.Time
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&SessionRow{},
	&PinRow{},
	&EasingRow{},
	&CommitRecord{},
	&RetimePerformance{},
}

////////////////////////
// SESSION MODELS
////////////////////////

// SessionRow is one tool activation, from entering the editing mode to
// commit or teardown.
type SessionRow struct {
	gorm.Model
	SessionUID  string         `json:"sessionUid" gorm:"size:36;index:idx_session_uid"`
	Project     string         `json:"project" gorm:"size:200"`
	Clip        string         `json:"clip" gorm:"size:200"`
	Scope       string         `json:"scope" gorm:"size:32"`
	ScopeDetail datatypes.JSON `json:"scopeDetail" gorm:"type:jsonb;default:'{}'"` // resolved channels / selection descriptor
	StartTime   time.Time      `json:"startTime" gorm:"type:timestamptz;index:idx_session_start"`
	EndTime     time.Time      `json:"endTime" gorm:"type:timestamptz"`
	Committed   bool           `json:"committed" gorm:"default:false"`

	Pins    []PinRow       `gorm:"foreignKey:SessionID"`
	Easings []EasingRow    `gorm:"foreignKey:SessionID"`
	Commits []CommitRecord `gorm:"foreignKey:SessionID"`
}

func (*SessionRow) TableName() string {
	return "sessions"
}

////////////////////////
// LANDMARK MODELS
////////////////////////

// PinRow is the persisted form of one time landmark.
type PinRow struct {
	gorm.Model
	SessionID uint       `json:"sessionId" gorm:"index:idx_pin_session_id"`
	Session   SessionRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	PinID     uint64     `json:"pinId" gorm:"index:idx_pin_pin_id"` // arena-assigned id, stable within a session
	Time      float64    `json:"time"`
}

func (*PinRow) TableName() string {
	return "pins"
}

// EasingRow is the persisted easing bias of one segment. Ordinal is the
// segment index, so a session has one row per gap between adjacent pins.
type EasingRow struct {
	gorm.Model
	SessionID uint       `json:"sessionId" gorm:"index:idx_easing_session_id"`
	Session   SessionRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Ordinal   int        `json:"ordinal"`
	Bias      float64    `json:"bias" gorm:"default:0.5"`
}

func (*EasingRow) TableName() string {
	return "easings"
}

// CommitRecord logs one committed edit: a drag release or a structural
// command that pushed an undo checkpoint.
type CommitRecord struct {
	gorm.Model
	SessionID uint       `json:"sessionId" gorm:"index:idx_commit_session_id"`
	Session   SessionRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Label     string     `json:"label" gorm:"size:127"`
	Time      time.Time  `json:"time" gorm:"type:timestamptz"`
	PinCount  int        `json:"pinCount"`
}

func (*CommitRecord) TableName() string {
	return "commit_records"
}

////////////////////////
// PERFORMANCE MODELS
////////////////////////

// RetimePerformance is the model for recompute timing metrics
type RetimePerformance struct {
	Time              time.Time  `json:"time" gorm:"type:timestamptz;index:idx_time"`
	SessionID         uint       `json:"sessionId" gorm:"index:idx_retimeperformance_session_id"`
	Session           SessionRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	SampleCount       int        `json:"sampleCount"`
	MarkerCount       int        `json:"markerCount"`
	PinCount          int        `json:"pinCount"`
	RecomputeDuration float32    `json:"recomputeDurationMs"`
	QueueLength       uint16     `json:"queueLength"` // telemetry write queue at sample time
}

func (*RetimePerformance) TableName() string {
	return "retime_performances"
}

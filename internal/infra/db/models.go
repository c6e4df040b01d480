package db

import "time"

type VerificationRecordModel struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	Seq            int64     `gorm:"uniqueIndex;not null"`
	PollID         int       `gorm:"index;not null"`
	Outcome        string    `gorm:"not null"`
	ReasonsJSON    []byte    `gorm:"type:jsonb;not null"`
	Fingerprint    string    `gorm:"not null"`
	PayloadHash    string    `gorm:"not null"`
	PrevRecordHash string    `gorm:"not null"`
	RecordHash     string    `gorm:"uniqueIndex;not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (VerificationRecordModel) TableName() string {
	return "verification_records"
}

// HistorySeqModel is a single-row counter locked while appending.
type HistorySeqModel struct {
	ID  int   `gorm:"primaryKey;autoIncrement:false"`
	Seq int64 `gorm:"not null"`
}

func (HistorySeqModel) TableName() string {
	return "verification_history_seq"
}

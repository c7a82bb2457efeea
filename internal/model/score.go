package model

import "time"

// Score 一次考试的成绩记录，只追加，永不更新
type Score struct {
	BaseModel
	UserID   uint      `gorm:"index;not null" json:"userId"`
	Category string    `gorm:"size:100;not null;index" json:"category"`
	Score    int       `gorm:"not null" json:"score"`
	TakenAt  time.Time `gorm:"index;not null" json:"takenAt"`
}

func (Score) TableName() string {
	return "scores"
}

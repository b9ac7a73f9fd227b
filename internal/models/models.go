package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SkillLearning = "learning"
	SkillTeaching = "teaching"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Gender       string    `gorm:"not null"                 json:"gender"`
	Nickname     string    `json:"nickname"`
	Introduction string    `json:"introduction"`
	Skills       []Skill   `gorm:"foreignKey:UserID"        json:"skills,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Skill struct {
	ID           uint      `gorm:"primaryKey"          json:"-"`
	UserID       uuid.UUID `gorm:"type:uuid;index"     json:"-"`
	Kind         string    `gorm:"not null"            json:"-"`
	Name         string    `gorm:"not null"            json:"name"`
	Descriptions string    `json:"descriptions"`
}

// UserToken is one registry entry: the token strings currently accepted
// for a user. Membership here, not signature validity, decides revocation.
type UserToken struct {
	ID     uint      `gorm:"primaryKey"      json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Token  string    `gorm:"not null"        json:"token"`
}

type Chatroom struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	UserA     uuid.UUID `gorm:"type:uuid;index;not null" json:"userA"`
	UserB     uuid.UUID `gorm:"type:uuid;index;not null" json:"userB"`
	Messages  []Message `gorm:"foreignKey:ChatroomID"    json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Chatroom) Has(id uuid.UUID) bool {
	return r.UserA == id || r.UserB == id
}

type Message struct {
	ID         uint      `gorm:"primaryKey"      json:"id"`
	ChatroomID uint      `gorm:"index;not null"  json:"roomId"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"senderId"`
	Content    string    `gorm:"not null"        json:"content"`
	Date       string    `gorm:"not null"        json:"date"`
	Timestamp  string    `gorm:"not null"        json:"timestamp"`
	CreatedAt  time.Time `json:"-"`
}

// Profile is the public view of a user, also the document shape
// indexed for search.
type Profile struct {
	UserID         uuid.UUID `json:"userId"`
	Username       string    `json:"username"`
	Gender         string    `json:"gender"`
	Nickname       string    `json:"nickname"`
	LearningSkills []Skill   `json:"learningSkills"`
	TeachingSkills []Skill   `json:"teachingSkills"`
	Introduction   string    `json:"introduction"`
}

func ProfileOf(u *User) Profile {
	p := Profile{
		UserID:         u.ID,
		Username:       u.Username,
		Gender:         u.Gender,
		Nickname:       u.Nickname,
		Introduction:   u.Introduction,
		LearningSkills: []Skill{},
		TeachingSkills: []Skill{},
	}
	for _, s := range u.Skills {
		switch s.Kind {
		case SkillTeaching:
			p.TeachingSkills = append(p.TeachingSkills, s)
		default:
			p.LearningSkills = append(p.LearningSkills, s)
		}
	}
	return p
}

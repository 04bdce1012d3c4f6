package models

import (
	"time"

	"github.com/lib/pq"
)

// Language is the syntax family of a post's code snippet.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageCPP        Language = "cpp"
	LanguageJava       Language = "java"
)

// Languages lists the accepted snippet languages.
var Languages = []Language{LanguageJavaScript, LanguagePython, LanguageCPP, LanguageJava}

// Valid reports whether l is one of the accepted languages.
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// Post is a published study note. Posts are immutable once created.
type Post struct {
	ID        int64          `db:"id" json:"id"`
	AuthorID  int64          `db:"author_id" json:"author_id"`
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	Code      string         `db:"code" json:"code"`
	Language  Language       `db:"language" json:"language"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Course    *string        `db:"course" json:"course"`
	GroupID   *int64         `db:"group_id" json:"group_id"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	AuthorUsername string  `db:"author_username" json:"author"`
	GroupName      *string `db:"group_name" json:"group_name"`
}

// IsPublic reports whether the post is visible without group membership.
func (p Post) IsPublic() bool {
	return p.GroupID == nil
}

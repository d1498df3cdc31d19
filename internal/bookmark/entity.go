// AngelaMos | 2026
// entity.go

package bookmark

import (
	"time"
)

type Bookmark struct {
	ID        string    `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"user_id"`
	Title     string    `db:"title"      json:"title"`
	URL       string    `db:"url"        json:"url"`
	Category  string    `db:"category"   json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	Title    string `json:"title"    validate:"required,notblank,max=255"`
	URL      string `json:"url"      validate:"required,http_url,max=500"`
	Category string `json:"category" validate:"max=100"`
}

var labels = map[string]string{
	"title":    "Titre",
	"url":      "URL",
	"category": "Catégorie",
}

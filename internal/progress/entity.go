// AngelaMos | 2026
// entity.go

package progress

import (
	"time"
)

type Progress struct {
	ID          string     `db:"id"           json:"id"`
	UserID      string     `db:"user_id"      json:"user_id"`
	Category    string     `db:"category"     json:"category"`
	Step        string     `db:"step"         json:"step"`
	Completed   bool       `db:"completed"    json:"completed"`
	Notes       string     `db:"notes"        json:"notes"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
}

type UpsertRequest struct {
	Category  string `json:"category"  validate:"required,notblank,max=100"`
	Step      string `json:"step"      validate:"required,notblank,max=100"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes"     validate:"max=5000"`
}

var labels = map[string]string{
	"category": "Catégorie",
	"step":     "Étape",
	"notes":    "Notes",
}

// AngelaMos | 2026
// dto.go

package booking

import (
	"strings"
	"time"
)

type ReserveRequest struct {
	Prenom           string `json:"prenom"            validate:"notblank,max=50"`
	Nom              string `json:"nom"               validate:"notblank,max=50"`
	Email            string `json:"email"             validate:"notblank,emailaddr,max=120"`
	Telephone        string `json:"telephone"         validate:"max=20"`
	Pays             string `json:"pays"              validate:"notblank,max=50"`
	TypeRdv          string `json:"type_rdv"          validate:"notblank,max=50"`
	ConsultationType string `json:"consultation_type" validate:"notblank,max=20"`
	Sujet            string `json:"sujet"             validate:"max=255"`
	Message          string `json:"message"           validate:"max=5000"`
	DateRdv          string `json:"date_rdv"          validate:"notblank,datetime=2006-01-02"`
	HeureRdv         string `json:"heure_rdv"         validate:"notblank,datetime=15:04"`
}

func (r *ReserveRequest) trim() {
	for _, f := range []*string{
		&r.Prenom, &r.Nom, &r.Email, &r.Telephone, &r.Pays, &r.TypeRdv,
		&r.ConsultationType, &r.Sujet, &r.Message, &r.DateRdv, &r.HeureRdv,
	} {
		*f = strings.TrimSpace(*f)
	}
}

var fieldLabels = map[string]string{
	"prenom":            "Prénom",
	"nom":               "Nom",
	"email":             "Email",
	"telephone":         "Téléphone",
	"pays":              "Pays",
	"type_rdv":          "Type de RDV",
	"consultation_type": "Type de consultation",
	"sujet":             "Sujet",
	"message":           "Message",
	"date_rdv":          "Date préférée",
	"heure_rdv":         "Heure préférée",
	"statut":            "Statut",
}

type CancelRequest struct {
	Email string `json:"email"`
}

type UpdateStatusRequest struct {
	Statut     Status  `json:"statut"      validate:"required,oneof=pending confirmed cancelled completed"`
	NotesAdmin *string `json:"notes_admin" validate:"omitempty,max=5000"`
}

type ListParams struct {
	Page     int
	PageSize int
	Statut   Status
	Date     *time.Time
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Response struct {
	ID               string    `json:"id"`
	Prenom           string    `json:"prenom"`
	Nom              string    `json:"nom"`
	Email            string    `json:"email"`
	Telephone        string    `json:"telephone"`
	Pays             string    `json:"pays"`
	TypeRdv          string    `json:"type_rdv"`
	ConsultationType string    `json:"consultation_type"`
	Sujet            string    `json:"sujet"`
	Message          string    `json:"message"`
	DateRdv          string    `json:"date_rdv"`
	HeureRdv         string    `json:"heure_rdv"`
	Statut           Status    `json:"statut"`
	UserID           *string   `json:"user_id"`
	EmailAdminSent   bool      `json:"email_admin_sent"`
	EmailUserSent    bool      `json:"email_user_sent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AdminResponse adds the fields only staff may read.
type AdminResponse struct {
	Response
	NotesAdmin string `json:"notes_admin"`
}

type ActionResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Rdv     Response `json:"rdv"`
}

type AvailabilityResponse struct {
	Date              string   `json:"date"`
	HeuresOccupees    []string `json:"heures_occupees"`
	TotalReservations int      `json:"total_reservations"`
}

func ToResponse(b *Booking) Response {
	return Response{
		ID:               b.ID,
		Prenom:           b.Prenom,
		Nom:              b.Nom,
		Email:            b.Email,
		Telephone:        b.Telephone,
		Pays:             b.Pays,
		TypeRdv:          b.TypeRdv,
		ConsultationType: b.ConsultationType,
		Sujet:            b.Sujet,
		Message:          b.Message,
		DateRdv:          b.Date(),
		HeureRdv:         b.HeureRdv,
		Statut:           b.Statut,
		UserID:           b.UserID,
		EmailAdminSent:   b.EmailAdminSent,
		EmailUserSent:    b.EmailUserSent,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func ToResponseList(bookings []Booking) []Response {
	out := make([]Response, len(bookings))
	for i := range bookings {
		out[i] = ToResponse(&bookings[i])
	}
	return out
}

func ToAdminResponseList(bookings []Booking) []AdminResponse {
	out := make([]AdminResponse, len(bookings))
	for i := range bookings {
		out[i] = AdminResponse{
			Response:   ToResponse(&bookings[i]),
			NotesAdmin: bookings[i].NotesAdmin,
		}
	}
	return out
}

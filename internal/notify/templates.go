// AngelaMos | 2026
// templates.go

package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const displayDate = "02/01/2006"

type reservationData struct {
	Prenom           string
	Nom              string
	Email            string
	Telephone        string
	Pays             string
	TypeRdv          string
	ConsultationType string
	Sujet            string
	Message          string
	Date             string
	Heure            string
	Contact          string
	Year             int
}

type verificationData struct {
	Name string
	Link string
}

func newReservationData(b booking.Booking, contact string) reservationData {
	return reservationData{
		Prenom:           b.Prenom,
		Nom:              b.Nom,
		Email:            b.Email,
		Telephone:        b.Telephone,
		Pays:             b.Pays,
		TypeRdv:          b.TypeRdv,
		ConsultationType: b.ConsultationType,
		Sujet:            b.Sujet,
		Message:          b.Message,
		Date:             b.DateRdv.Format(displayDate),
		Heure:            b.HeureRdv,
		Contact:          contact,
		Year:             time.Now().Year(),
	}
}

// reservationMessages renders the requester confirmation and the admin
// alert for b.
func reservationMessages(b booking.Booking, adminEmail string) (Message, Message, error) {
	data := newReservationData(b, adminEmail)

	userHTML, err := render("reservation_user.html", data)
	if err != nil {
		return Message{}, Message{}, err
	}
	adminHTML, err := render("reservation_admin.html", data)
	if err != nil {
		return Message{}, Message{}, err
	}

	user := Message{
		To:      b.Email,
		ToName:  b.FullName(),
		Subject: fmt.Sprintf("Confirmation de votre réservation - %s à %s", data.Date, data.Heure),
		HTML:    userHTML,
	}
	admin := Message{
		To:      adminEmail,
		Subject: fmt.Sprintf("NOUVEAU RDV : %s %s - %s à %s", b.Prenom, b.Nom, data.Date, data.Heure),
		HTML:    adminHTML,
	}

	return user, admin, nil
}

func verificationMessage(frontendURL, email, name, token string) (Message, error) {
	link := strings.TrimRight(frontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)

	html, err := render("verification.html", verificationData{Name: name, Link: link})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      email,
		ToName:  name,
		Subject: "Vérifiez votre adresse email - Étudiante Solidaire",
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

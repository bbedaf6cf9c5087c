package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportService renders the Excel and PDF exports
type ReportService struct {
	db         *gorm.DB
	activities *ActivityService
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, activities: NewActivityService(db)}
}

const dateLayout = "02/01/2006"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatAddress(street, number string, floor *string, town string) string {
	address := street + " " + number
	if floor != nil && *floor != "" {
		address += ", " + *floor
	}
	if town != "" {
		address += ", " + town
	}
	return address
}

// MembersExcel renders the full member roster as an XLSX workbook
func (s *ReportService) MembersExcel() ([]byte, error) {
	var members []models.Member
	err := s.db.Preload("Dependents").Where("role = ?", models.RoleMember).
		Order("member_number").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Socios"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Nº Socio", "Nombre", "Usuario", "Contraseña", "Alta",
		"Válido hasta", "Teléfono", "Dirección", "Población", "Método de pago", "Beneficiarios"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, m := range members {
		values := []interface{}{
			deref(m.MemberNumber),
			m.Name,
			m.Username,
			m.PasswordPlain,
			m.JoinedAt.Format(dateLayout),
			m.ValidUntil.Format(dateLayout),
			m.Phone,
			formatAddress(m.Street, m.StreetNumber, m.Floor, ""),
			m.Town,
			m.PaymentMethod,
			len(m.Dependents),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RequestsExcel renders the membership request log as an XLSX workbook
func (s *ReportService) RequestsExcel() ([]byte, error) {
	var requests []models.MembershipRequest
	err := s.db.Preload("Dependents").Order("requested_at").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Solicitudes"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Nombre", "Apellidos", "Teléfono", "Unidad familiar",
		"Método de pago", "Estado", "Solicitada", "Confirmada", "Dirección"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, r := range requests {
		confirmed := ""
		if r.ConfirmedAt != nil {
			confirmed = r.ConfirmedAt.Format(dateLayout)
		}
		values := []interface{}{
			r.ID,
			r.Name,
			r.FirstSurname + " " + r.SecondSurname,
			r.Phone,
			r.HouseholdSize,
			string(r.PaymentMethod),
			string(r.Status),
			r.RequestedAt.Format(dateLayout),
			confirmed,
			formatAddress(r.Street, r.StreetNumber, r.Floor, r.Town),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newPDF(title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf, tr
}

func renderPDF(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// ActivitiesPDF renders the listing of all activities
func (s *ReportService) ActivitiesPDF() ([]byte, error) {
	activities, err := s.activities.ListAll("")
	if err != nil {
		return nil, err
	}

	pdf, tr := newPDF("Listado de actividades")
	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{70, 35, 25, 30, 30}
	for i, h := range []string{"Actividad", "Fecha", "Plazas", "Inscritos", "Edades"} {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, a := range activities {
		startsAt, _ := time.Parse(time.RFC3339, a.StartsAt)
		ages := ""
		if a.MinAge != nil {
			ages = fmt.Sprintf("%d", *a.MinAge)
		}
		ages += "-"
		if a.MaxAge != nil {
			ages += fmt.Sprintf("%d", *a.MaxAge)
		}
		if ages == "-" {
			ages = "todas"
		}
		pdf.CellFormat(widths[0], 7, tr(a.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, startsAt.Format(dateLayout), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", a.MaxCapacity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", a.Registered), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, tr(ages), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	return renderPDF(pdf)
}

// ActivityRosterPDF renders the attendance sheet for one activity
func (s *ReportService) ActivityRosterPDF(activityID uint) ([]byte, error) {
	activity, err := s.activities.GetActivity(activityID)
	if err != nil {
		return nil, err
	}
	roster, err := s.activities.Roster(activityID)
	if err != nil {
		return nil, err
	}

	pdf, tr := newPDF("Hoja de asistencia: " + activity.Name)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Inscritos: %d de %d plazas", activity.Registered, activity.MaxCapacity)),
		"", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{80, 30, 40, 40}
	for i, h := range []string{"Nombre", "Tipo", "Número", "Asistencia"} {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, entry := range roster {
		number := entry.MemberNumber
		if entry.Kind == models.RosterKindDependent {
			number = entry.BenefitNumber
		}
		attended := ""
		if entry.Attended {
			attended = "X"
		}
		pdf.CellFormat(widths[0], 7, tr(entry.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(entry.Kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, number, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, attended, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	return renderPDF(pdf)
}

// MembershipCardPDF renders a member's card with their household
func (s *ReportService) MembershipCardPDF(member *models.Member) ([]byte, error) {
	pdf, tr := newPDF("Carné de socio")
	pdf.SetFont("Helvetica", "", 11)

	lines := []string{
		"Nº de socio: " + deref(member.MemberNumber),
		"Nombre: " + member.Name,
		"Alta: " + member.JoinedAt.Format(dateLayout),
		"Válido hasta: " + member.ValidUntil.Format(dateLayout),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}

	if len(member.Dependents) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr("Beneficiarios"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, d := range member.Dependents {
			pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s (%s)", d.FullName(), deref(d.BenefitNumber))),
				"", 1, "L", false, 0, "")
		}
	}
	return renderPDF(pdf)
}

// RequestConfirmationPDF renders the signup confirmation sheet handed to
// the applicant.
func (s *ReportService) RequestConfirmationPDF(request *models.MembershipRequest) ([]byte, error) {
	pdf, tr := newPDF("Solicitud de alta de socio")
	pdf.SetFont("Helvetica", "", 11)

	lines := []string{
		fmt.Sprintf("Solicitud nº %d", request.ID),
		"Nombre: " + request.Name + " " + request.FirstSurname + " " + request.SecondSurname,
		"Teléfono: " + request.Phone,
		fmt.Sprintf("Unidad familiar: %d", request.HouseholdSize),
		"Método de pago: " + string(request.PaymentMethod),
		"Dirección: " + formatAddress(request.Street, request.StreetNumber, request.Floor, request.Town),
		"Fecha de solicitud: " + request.RequestedAt.Format(dateLayout),
		"Estado: " + string(request.Status),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}

	if len(request.Dependents) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr("Beneficiarios declarados"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, d := range request.Dependents {
			name := d.Name + " " + d.FirstSurname
			if d.SecondSurname != nil {
				name += " " + *d.SecondSurname
			}
			pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s (%d)", name, d.BirthYear)), "", 1, "L", false, 0, "")
		}
	}
	return renderPDF(pdf)
}

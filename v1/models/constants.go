package models

// Member roles. The Spanish values are kept on the wire and in the
// database for compatibility with data imported from the previous system.
const (
	RoleBoard  = "directiva"
	RoleMember = "socio"
)

// RequestStatus represents the lifecycle state of a membership request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// PaymentMethod represents how the applicant intends to pay the yearly fee
type PaymentMethod string

const (
	PaymentMethodBizum    PaymentMethod = "bizum"
	PaymentMethodTransfer PaymentMethod = "transferencia"
	PaymentMethodCash     PaymentMethod = "efectivo"
)

// ValidPaymentMethod reports whether m is one of the accepted payment methods
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodBizum, PaymentMethodTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// BackupJobStatus represents the processing state of a queued backup job
type BackupJobStatus string

const (
	BackupJobStatusPending    BackupJobStatus = "pending"
	BackupJobStatusProcessing BackupJobStatus = "processing"
	BackupJobStatusCompleted  BackupJobStatus = "completed"
	BackupJobStatusFailed     BackupJobStatus = "failed"
)

// ExportVersion is the document version accepted by the import endpoint
const ExportVersion = "1.0"

// MinBirthYear is the lower bound accepted for any birth year field
const MinBirthYear = 1900

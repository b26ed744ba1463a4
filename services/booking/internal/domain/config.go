package domain

type BookingModel string

const (
	ModelFullPayment BookingModel = "pago_completo"
	ModelDeposit     BookingModel = "deposito_resto"
	ModelRequestOnly BookingModel = "solo_reserva"
)

type DepositType string

const (
	DepositPercentage DepositType = "percentage"
	DepositFixed      DepositType = "fixed"
)

type DeadlineType string

const (
	DeadlineBeforeDeparture DeadlineType = "before_departure"
	DeadlineAfterBooking    DeadlineType = "after_booking"
)

// BookingConfig is the tenant payment policy. The engine only reads it.
type BookingConfig struct {
	BookingModel        BookingModel `json:"booking_model"`
	DepositType         DepositType  `json:"deposit_type"`
	DepositValue        float64      `json:"deposit_value"`
	PaymentDeadlineType DeadlineType `json:"payment_deadline_type"`
	PaymentDeadlineDays int          `json:"payment_deadline_days"`
	ChargesEnabled      bool         `json:"charges_enabled"`
}

// ResolvedModel is the model the engine actually applies. A tenant that
// cannot take charges only accepts requests.
func (c BookingConfig) ResolvedModel() BookingModel {
	if !c.ChargesEnabled {
		return ModelRequestOnly
	}
	switch c.BookingModel {
	case ModelFullPayment, ModelDeposit:
		return c.BookingModel
	default:
		return ModelRequestOnly
	}
}

// TakesPayment reports whether submission goes through checkout.
func (m BookingModel) TakesPayment() bool {
	return m == ModelFullPayment || m == ModelDeposit
}

package enum

import (
	"database/sql/driver"
	"fmt"
)

// PaymentStatus is the derived payment label of a custom order
type PaymentStatus string

const (
	PaymentStatusNotPaid       PaymentStatus = "Not Paid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusFullyPaid     PaymentStatus = "Fully Paid"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = PaymentStatusNotPaid
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentStatus", value)
	}
	return nil
}

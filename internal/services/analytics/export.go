package analytics

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

var (
	paymentCSVHeader  = []string{"id", "date", "customer_id", "customer_name", "amount", "method", "status", "reference_id"}
	customerCSVHeader = []string{"customer_id", "name", "phone", "plan", "monthly_fee", "status", "payment_status", "total_paid", "payment_count", "last_payment_date"}
)

// WritePaymentsCSV writes payments with a header row
func WritePaymentsCSV(w io.Writer, payments []domain.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(paymentCSVHeader); err != nil {
		return err
	}
	for _, p := range payments {
		if err := cw.Write([]string{
			p.ID,
			timeutil.FormatDate(p.Date),
			p.CustomerID,
			p.CustomerName,
			p.Amount.StringFixed(2),
			p.Method,
			string(p.Status),
			p.ReferenceID,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCustomerReportCSV writes customer report rows with a header row
func WriteCustomerReportCSV(w io.Writer, rows []CustomerReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(customerCSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		last := ""
		if r.LastPaymentDate != nil {
			last = timeutil.FormatDate(*r.LastPaymentDate)
		}
		if err := cw.Write([]string{
			r.CustomerID,
			r.CustomerName,
			r.Phone,
			r.Plan,
			r.MonthlyFee.StringFixed(2),
			string(r.Status),
			string(r.PaymentStatus),
			r.TotalPaid.StringFixed(2),
			strconv.Itoa(r.PaymentCount),
			last,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

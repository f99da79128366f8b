package analytics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	analyticssvc "github.com/kevin07696/recurringhub/internal/services/analytics"
	"github.com/kevin07696/recurringhub/pkg/encoding"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func parseFormat(r *http.Request) (string, error) {
	switch f := r.URL.Query().Get("format"); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatCSV:
		return formatCSV, nil
	default:
		return "", domain.NewDomainError(domain.ErrorCodeValidationFailed, "format must be json or csv").
			WithDetail("format", f)
	}
}

// dateBounds reads the optional from/to query dates
func dateBounds(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if from, err = httputil.ParseDate("from", q.Get("from")); err != nil {
		return nil, nil, err
	}
	if to, err = httputil.ParseDate("to", q.Get("to")); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "to must not be before from")
	}
	return from, to, nil
}

// writeCSV buffers the export so a write error can still become a 500
func (h *Handler) writeCSV(w http.ResponseWriter, name string, write func(*bytes.Buffer) error) {
	buf := encoding.GetBuffer()
	defer encoding.PutBuffer(buf)
	if err := write(buf); err != nil {
		httputil.RespondError(w, h.logger, fmt.Errorf("write %s csv: %w", name, err))
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", name, timeutil.FormatDate(h.now()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("Failed to write CSV export", zap.String("report", name), zap.Error(err))
	}
}

// PaymentsReport handles GET /reports/payments?range=&from=&to=&status=&format=
func (h *Handler) PaymentsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := parseFormat(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	dateRange, err := analyticssvc.ParseDateRange(q.Get("range"))
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	from, to, err := dateBounds(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	if (from != nil || to != nil) && dateRange == analyticssvc.RangeAll {
		dateRange = analyticssvc.RangeCustom
	}

	payments, err := h.service.PaymentsReport(r.Context(), dateRange, from, to, h.now())
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	if status := q.Get("status"); status != "" {
		payments = analyticssvc.FilterPaymentRecords(payments, analyticssvc.ExportFilter{Status: status})
	}

	if format == formatCSV {
		h.writeCSV(w, "payments", func(buf *bytes.Buffer) error {
			return analyticssvc.WritePaymentsCSV(buf, payments)
		})
		return
	}

	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"range":    dateRange,
		"payments": httputil.NewPaymentViews(payments),
		"count":    len(payments),
		"total":    total,
	})
}

// CustomerReportView is the JSON form of a customer report row
type CustomerReportView struct {
	analyticssvc.CustomerReportRow
	LastPaymentDate *string `json:"last_payment_date"`
}

// CustomersReport handles GET /reports/customers?status=&plan=&from=&to=&format=.
// from/to bound the customer's creation date.
func (h *Handler) CustomersReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := parseFormat(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	from, to, err := dateBounds(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	asOf, err := httputil.AsOf(r, h.now())
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	rows, err := h.service.CustomersReport(r.Context(), analyticssvc.ExportFilter{
		DateFrom: from,
		DateTo:   to,
		Status:   q.Get("status"),
		Plan:     q.Get("plan"),
	}, asOf)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	if format == formatCSV {
		h.writeCSV(w, "customers", func(buf *bytes.Buffer) error {
			return analyticssvc.WriteCustomerReportCSV(buf, rows)
		})
		return
	}

	views := make([]CustomerReportView, len(rows))
	for i, row := range rows {
		views[i] = CustomerReportView{CustomerReportRow: row}
		if row.LastPaymentDate != nil {
			d := timeutil.FormatDate(*row.LastPaymentDate)
			views[i].LastPaymentDate = &d
		}
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"customers": views,
		"count":     len(views),
	})
}

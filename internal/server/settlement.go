package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	notificationservice "github.com/rentstack/rentstack/internal/notification/service"
	"github.com/rentstack/rentstack/internal/providers/pdf"
	settlementdomain "github.com/rentstack/rentstack/internal/settlement/domain"
)

type createTermRequest struct {
	TenantID    string     `json:"tenantId"`
	Term        int        `json:"term"`
	Description string     `json:"description"`
	Currency    string     `json:"currency"`
	DueDate     *time.Time `json:"dueDate"`
	Charges     []lineItem `json:"charges"`
	Discounts   []lineItem `json:"discounts"`
	Debts       []lineItem `json:"debts"`
}

type lineItem struct {
	Description string  `json:"description"`
	Origin      string  `json:"origin"`
	Amount      float64 `json:"amount"`
}

type paymentRequest struct {
	Amount      float64    `json:"amount"`
	PaidAt      *time.Time `json:"paidAt"`
	Method      string     `json:"method"`
	Reference   string     `json:"reference"`
	Description string     `json:"description"`
}

type emailInvoiceRequest struct {
	To         []string `json:"to"`
	TenantName string   `json:"tenantName"`
}

type termResponse struct {
	ID          string                           `json:"id"`
	TenantID    string                           `json:"tenantId"`
	Term        int                              `json:"term"`
	Description string                           `json:"description,omitempty"`
	Currency    string                           `json:"currency"`
	DueDate     *time.Time                       `json:"dueDate,omitempty"`
	Archived    bool                             `json:"archived"`
	GrandTotal  float64                          `json:"grandTotal"`
	Payment     float64                          `json:"payment"`
	Balance     float64                          `json:"balance"`
	State       settlementdomain.SettlementState `json:"state"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

func newTermResponse(term *settlementdomain.BillingTerm) termResponse {
	totals := settlementdomain.Totals{
		PreTaxAmount: term.PreTaxAmount,
		GrandTotal:   term.GrandTotal,
		Payment:      term.Payment,
		Balance:      term.Balance,
	}
	return termResponse{
		ID:          term.ID.String(),
		TenantID:    term.TenantID.String(),
		Term:        term.Term,
		Description: term.Description,
		Currency:    term.Currency,
		DueDate:     term.DueAt,
		Archived:    term.Archived,
		GrandTotal:  term.GrandTotal,
		Payment:     term.Payment,
		Balance:     term.Balance,
		State:       totals.State(),
		UpdatedAt:   term.UpdatedAt,
	}
}

func (s *Server) createTerm(c *gin.Context) {
	var req createTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenantID, err := snowflake.ParseString(req.TenantID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	term := &settlementdomain.BillingTerm{
		TenantID:    tenantID,
		Term:        req.Term,
		Description: req.Description,
		Currency:    currency,
		DueAt:       req.DueDate,
	}
	for _, item := range req.Charges {
		term.Charges = append(term.Charges, settlementdomain.ChargeLine{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}
	for _, item := range req.Discounts {
		term.Discounts = append(term.Discounts, settlementdomain.DiscountLine{
			Origin:      item.Origin,
			Description: item.Description,
			Amount:      item.Amount,
		})
	}
	for _, item := range req.Debts {
		term.Debts = append(term.Debts, settlementdomain.DebtLine{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	created, err := s.settlementSvc.CreateTerm(c.Request.Context(), term)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTermResponse(created))
}

func (s *Server) getTerm(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.settlementSvc.GetTerm(c.Request.Context(), tenantID, term)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTermResponse(record))
}

func (s *Server) recordPayment(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment := settlementdomain.PaymentLine{
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		Description: req.Description,
	}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}

	record, err := s.settlementSvc.RecordPayment(c.Request.Context(), tenantID, term, payment)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTermResponse(record))
}

func (s *Server) recordDiscount(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req lineItem
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.settlementSvc.RecordDiscount(c.Request.Context(), tenantID, term, settlementdomain.DiscountLine{
		Origin:      req.Origin,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTermResponse(record))
}

func (s *Server) recordDebt(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req lineItem
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.settlementSvc.RecordDebt(c.Request.Context(), tenantID, term, settlementdomain.DebtLine{
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTermResponse(record))
}

func (s *Server) archiveTerm(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.settlementSvc.ArchiveTerm(c.Request.Context(), tenantID, term); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

func (s *Server) termInvoicePDF(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.settlementSvc.GetTerm(c.Request.Context(), tenantID, term)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	document, err := s.pdf.RenderInvoice(c.Request.Context(), invoiceData(record, c.Query("tenantName")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", document)
}

func (s *Server) emailTermInvoice(c *gin.Context) {
	tenantID, term, err := termParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req emailInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.To) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.settlementSvc.GetTerm(c.Request.Context(), tenantID, term)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	document, err := s.pdf.RenderInvoice(c.Request.Context(), invoiceData(record, req.TenantName))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	period := notificationservice.PeriodLabel(record.Term)
	subject := fmt.Sprintf("Rent invoice for %s", period)
	body := fmt.Sprintf("<p>Please find attached your rent invoice for %s.</p>", period)
	filename := fmt.Sprintf("invoice-%d.pdf", record.Term)
	if err := s.email.SendWithAttachment(c.Request.Context(), req.To, subject, body, filename, document); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func invoiceData(record *settlementdomain.BillingTerm, tenantName string) pdf.InvoiceData {
	data := pdf.InvoiceData{
		TenantName:    tenantName,
		InvoiceNumber: record.ID.String(),
		PeriodLabel:   notificationservice.PeriodLabel(record.Term),
		IssueDate:     record.UpdatedAt.Format("2006-01-02"),
		Currency:      record.Currency,
		GrandTotal:    formatMoney(record.GrandTotal, record.Currency),
		Paid:          formatMoney(record.Payment, record.Currency),
		Balance:       formatMoney(record.Balance, record.Currency),
	}
	if record.DueAt != nil {
		data.DueDate = record.DueAt.Format("2006-01-02")
	}
	for _, charge := range record.Charges {
		data.Lines = append(data.Lines, pdf.InvoiceLine{
			Label:  charge.Description,
			Kind:   "charge",
			Amount: formatMoney(charge.Amount, record.Currency),
		})
	}
	for _, discount := range record.Discounts {
		data.Lines = append(data.Lines, pdf.InvoiceLine{
			Label:  discount.Description,
			Kind:   "discount",
			Amount: formatMoney(-discount.Amount, record.Currency),
		})
	}
	for _, debt := range record.Debts {
		data.Lines = append(data.Lines, pdf.InvoiceLine{
			Label:  debt.Description,
			Kind:   "debt",
			Amount: formatMoney(debt.Amount, record.Currency),
		})
	}
	for _, payment := range record.Payments {
		data.Lines = append(data.Lines, pdf.InvoiceLine{
			Label:  paymentLabel(payment),
			Kind:   "payment",
			Amount: formatMoney(-payment.Amount, record.Currency),
		})
	}
	return data
}

func paymentLabel(payment settlementdomain.PaymentLine) string {
	label := "Payment received"
	if !payment.PaidAt.IsZero() {
		label = fmt.Sprintf("Payment received %s", payment.PaidAt.Format("2006-01-02"))
	}
	return label
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func termParams(c *gin.Context) (snowflake.ID, int, error) {
	tenantID, err := snowflake.ParseString(c.Param("tenantId"))
	if err != nil {
		return 0, 0, ErrInvalidRequest
	}
	term, err := strconv.Atoi(c.Param("term"))
	if err != nil {
		return 0, 0, ErrInvalidRequest
	}
	return tenantID, term, nil
}

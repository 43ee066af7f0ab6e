package dto

// ReporteFiscalQuery is bound from GET /v1/reportes/fiscal.
type ReporteFiscalQuery struct {
	Desde string `form:"desde" validate:"required,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"required,datetime=2006-01-02"`
}

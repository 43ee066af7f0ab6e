package dto

// TasaQuery is bound from the query string of the /v1/tasa endpoints.
type TasaQuery struct {
	Moneda string `form:"moneda,default=USD" validate:"oneof=USD"`
	Desde  string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta  string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
}

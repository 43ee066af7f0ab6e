package handler

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"novaadm/internal/apierror"
	"novaadm/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

// rifRe accepts V/E/J/P/G + 8 digits + check digit, dashes optional.
var rifRe = regexp.MustCompile(`^[VEJPGvejpg]-?\d{8}-?\d$`)

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("rif", func(fl validator.FieldLevel) bool {
		return rifRe.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
	})

	// Report json field names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.From(apierror.Validar("JSON invalido: "+err.Error())))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.From(apierror.Validar("parametros invalidos: "+err.Error())))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.From(apierror.Validar(err.Error())))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
	return false
}

// paramUUID parses a path parameter, writing a 400 when it is not a UUID.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.From(apierror.Validar(name+" invalido")))
		return uuid.Nil, false
	}
	return id, true
}

// fallar writes the envelope for err. Internal errors are logged with the
// request id; the client only sees a generic message.
func fallar(c *gin.Context, err error) {
	// unique violations a service did not map itself
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = apierror.Conflictuar("el registro ya existe").Envuelve(err)
	}
	status := apierror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, apierror.From(err))
}

func ok(c *gin.Context, status int, v interface{}) {
	c.JSON(status, apierror.Data(v))
}

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError — одна ошибка валидации поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors собирает ошибки по полям. Пустой набор ошибкой не считается.
type Errors struct {
	Errors []FieldError `json:"errors"`
}

func (ve *Errors) Add(field, message string) {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Message: message})
}

func (ve *Errors) HasErrors() bool {
	return ve != nil && len(ve.Errors) > 0
}

func (ve *Errors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err возвращает nil, если ошибок нет — удобно для `return ve.Err()`.
func (ve *Errors) Err() error {
	if !ve.HasErrors() {
		return nil
	}
	return ve
}

// As достаёт *Errors из цепочки ошибок.
func As(err error) (*Errors, bool) {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func Single(field, message string) *Errors {
	ve := &Errors{}
	ve.Add(field, message)
	return ve
}

func PositiveDecimal(ve *Errors, field string, v decimal.Decimal) {
	if !v.IsPositive() {
		ve.Add(field, "must be a positive number")
	}
}

var (
	once     sync.Once
	validate *validator.Validate
	custom   = map[string]validator.Func{}
	messages = map[string]string{}
	mu       sync.Mutex
)

// Register добавляет собственный тег валидатора. Вызывается из init() доменных пакетов.
func Register(tag, message string, fn func(value string) bool) {
	mu.Lock()
	defer mu.Unlock()
	vf := func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
	custom[tag] = vf
	messages[tag] = message
	if validate != nil {
		_ = validate.RegisterValidation(tag, vf)
	}
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		mu.Lock()
		for tag, fn := range custom {
			_ = validate.RegisterValidation(tag, fn)
		}
		mu.Unlock()
	})
	return validate
}

// Struct прогоняет теги `validate:"..."` и переводит ошибки validator в список {field, message}.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &Errors{}
	for _, fe := range verrs {
		ve.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return ve
}

// "request.items[0].price" -> "items[0].price"
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	mu.Lock()
	msg, ok := messages[fe.Tag()]
	mu.Unlock()
	if ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "dive":
		return "is invalid"
	}
	return "failed on " + fe.Tag()
}

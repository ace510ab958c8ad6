package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

type quoteService struct {
	quotes   QuoteRepo
	validate *validator.Validate
	clock    func() time.Time
}

func NewQuoteService(quotes QuoteRepo) QuoteService {
	return &quoteService{
		quotes:   quotes,
		validate: newRequestValidator(),
		clock:    time.Now,
	}
}

func (s *quoteService) Create(ctx context.Context, in policyapi.QuoteRequest) (policyapi.Quote, error) {
	// 1) structural validation; eligibility is checked when the quote is confirmed
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return policyapi.Quote{}, validationError(err)
	}

	// 2) persist
	q := QuoteFromRequest(in)
	q.CreatedAt = s.clock().UTC()
	saved, err := s.quotes.CreateQuote(ctx, q)
	if err != nil {
		return policyapi.Quote{}, Persistence("Failed to create quote", err)
	}
	return QuoteToModel(saved), nil
}

func (s *quoteService) Get(ctx context.Context, id int64) (Quote, error) {
	if id <= 0 {
		return Quote{}, newError(ErrValidation, "Invalid quote id")
	}
	q, err := s.quotes.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Quote{}, ErrQuoteNotFound
		}
		return Quote{}, Persistence("Failed to load quote", err)
	}
	return q, nil
}

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		d := f.Interface().(policyapi.Date)
		if d.IsZero() {
			return nil
		}
		return d.String()
	}, policyapi.Date{})
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		return f.Interface().(decimal.Decimal).InexactFloat64()
	}, decimal.Decimal{})
	return v
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return newError(ErrValidation, fmt.Sprintf("Field %s failed on the '%s' rule", fe.Namespace(), fe.Tag()))
	}
	return newError(ErrValidation, "Invalid quote request")
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

func TestObserveOperation_Outcomes(t *testing.T) {
	m := New()

	m.ObserveOperation(core.OpCancel, nil)
	m.ObserveOperation(core.OpCancel, core.ErrPolicyAlreadyCancelled)
	m.ObserveOperation(core.OpGet, core.ErrPolicyNotFound)
	m.ObserveOperation(core.OpCreate, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("cancel", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("cancel", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("get", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "error")))
}

func TestObserveRefund(t *testing.T) {
	m := New()

	m.ObserveRefund(decimal.RequireFromString("120.50"), core.PaymentTypeDirectDebit)
	m.ObserveRefund(decimal.Zero, core.PaymentTypeNone)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refunds.WithLabelValues("DirectDebit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refunds.WithLabelValues("None")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.refundSum))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveOperation(core.OpRenew, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `policy_admin_operations_total{operation="renew",outcome="success"} 1`)
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDocstore(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveDocstore("create", "chat_messages", 3*time.Millisecond, nil)
	m.ObserveDocstore("create", "chat_messages", time.Millisecond, nil)
	m.ObserveDocstore("get_collection", "chat_sessions", time.Millisecond, errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocstoreOperationsTotal.WithLabelValues("create", "chat_messages", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocstoreOperationsTotal.WithLabelValues("get_collection", "chat_sessions", "error")))
}

func TestRecordExchange(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordExchange("tutor", "fallback", time.Second)
	m.RecordExchange("chat", "skipped", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("tutor", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("chat", "skipped")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CompletionDuration))
}

func TestRecordListLoad(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordListLoad("sessions", true)
	m.RecordListLoad("messages", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionLoadsTotal.WithLabelValues("sessions", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionLoadsTotal.WithLabelValues("messages", "error")))
}

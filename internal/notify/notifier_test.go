package notify

import (
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Send(string, string, string, model.AlertDetails) error {
	s.calls++
	return s.err
}

func TestMultiSendsToAllTransports(t *testing.T) {
	a, b := &stubNotifier{}, &stubNotifier{}

	err := Multi{a, b}.Send("abnormal_loss", "Cabillaud", "Le Havre Centre", model.AlertDetails{})
	assert.NoError(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestMultiReturnsFirstErrorAfterAttemptingAll(t *testing.T) {
	errFirst := errors.New("smtp down")
	a := &stubNotifier{err: errFirst}
	b := &stubNotifier{err: errors.New("hub closed")}
	c := &stubNotifier{}

	err := Multi{a, b, c}.Send("unusual_flow", "Daurade", "Rouen Halles", model.AlertDetails{})
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, 1, c.calls, "a failing transport must not stop the fan-out")
}

func TestRenderBodyIncludesDerivedValues(t *testing.T) {
	body := renderBody("abnormal_loss", "store-wide", "Le Havre Centre", model.AlertDetails{
		CurrentValue:       25,
		ExpectedValue:      20,
		Variance:           5,
		VariancePercentage: 25,
		Threshold:          20,
	})
	assert.Contains(t, body, "abnormal_loss")
	assert.Contains(t, body, "Le Havre Centre")
	assert.Contains(t, body, "25.000")
}

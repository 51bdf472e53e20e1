package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultStockThresholds.Validate())
	assert.NoError(t, StockThresholds{Critical: 1, Low: 2, Overstock: 3}.Validate())

	assert.Error(t, StockThresholds{Critical: 7, Low: 2, Overstock: 30}.Validate())
	assert.Error(t, StockThresholds{Critical: 2, Low: 2, Overstock: 30}.Validate())
	assert.Error(t, StockThresholds{Critical: 2, Low: 30, Overstock: 30}.Validate())
}

func TestAnomalyThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultAnomalyThresholds.Validate())

	assert.Error(t, AnomalyThresholds{LossRateWarning: 20, LossRateCritical: 10, FlowVariancePct: 50, DailyLossMultiplier: 3}.Validate())
	// A zero warning threshold would divide by zero when grading the rate.
	assert.Error(t, AnomalyThresholds{LossRateWarning: 0, LossRateCritical: 20, FlowVariancePct: 50, DailyLossMultiplier: 3}.Validate())
	assert.Error(t, AnomalyThresholds{LossRateWarning: -5, LossRateCritical: 20, FlowVariancePct: 50, DailyLossMultiplier: 3}.Validate())
	assert.Error(t, AnomalyThresholds{LossRateWarning: 10, LossRateCritical: 20, FlowVariancePct: 0, DailyLossMultiplier: 3}.Validate())
	assert.Error(t, AnomalyThresholds{LossRateWarning: 10, LossRateCritical: 20, FlowVariancePct: 50, DailyLossMultiplier: -1}.Validate())
}

func TestStockLevelPriority(t *testing.T) {
	assert.Equal(t, 0, StockLevelPriority(StockLevelCritical))
	assert.Equal(t, 1, StockLevelPriority(StockLevelLow))
	assert.Equal(t, 2, StockLevelPriority(StockLevelOverstock))
	assert.Equal(t, 3, StockLevelPriority(StockLevelNormal))
	assert.Equal(t, 3, StockLevelPriority("whatever"))
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/god-protocol/assay-verifier/services/ledger-service/models"
)

func sampleBatch() []models.VerifiedSample {
	return []models.VerifiedSample{
		{UserWallet: "0xaaaa", MetalType: 1, WeightGrams: 100, Purity: 0.999, ClockValue: 2, SampleID: "s1"},
		{UserWallet: "0xbbbb", MetalType: 1, WeightGrams: 50, Purity: 0.999, ClockValue: 1, SampleID: "s2"},
		{UserWallet: "0xaaaa", MetalType: 2, WeightGrams: 300, Purity: 0.925, ClockValue: 3, SampleID: "s3"},
		{UserWallet: "0xcccc", MetalType: 2, WeightGrams: 100, Purity: 0.925, ClockValue: 1, SampleID: "s4"},
	}
}

func TestTotalFineWeightByMetal(t *testing.T) {
	service := NewCreditService(nil, nil)

	gold, silver := service.totalFineWeightByMetal(sampleBatch())

	assert.InDelta(t, 149.85, gold, 1e-9)
	assert.InDelta(t, 370.0, silver, 1e-9)
}

func TestAggregateUserFineWeight(t *testing.T) {
	service := NewCreditService(nil, nil)

	userWeights := service.aggregateUserFineWeight(sampleBatch())

	assert.Len(t, userWeights, 3)
	assert.InDelta(t, 99.9, userWeights["0xaaaa"][1], 1e-9)
	assert.InDelta(t, 277.5, userWeights["0xaaaa"][2], 1e-9)
	assert.InDelta(t, 49.95, userWeights["0xbbbb"][1], 1e-9)
	assert.Zero(t, userWeights["0xbbbb"][2])
}

func TestAllocateUserCreditsProportional(t *testing.T) {
	service := NewCreditService(nil, nil)

	// Gold pool 60, silver pool 40, totals 3g fine gold and 4g fine silver
	result := service.allocateUserCredits("0xaaaa", map[int]float64{1: 2, 2: 3}, 60, 40, 3, 4)

	assert.InDelta(t, 40.0, result.GoldCredits, 1e-9)
	assert.InDelta(t, 30.0, result.SilverCredits, 1e-9)
	assert.InDelta(t, 70.0, result.TotalCredits, 1e-9)
	assert.Equal(t, 70, result.RoundedCredits)
}

func TestAllocateUserCreditsSingleMetal(t *testing.T) {
	service := NewCreditService(nil, nil)

	result := service.allocateUserCredits("0xbbbb", map[int]float64{1: 1, 2: 0}, 60, 40, 3, 4)

	assert.InDelta(t, 20.0, result.GoldCredits, 1e-9)
	assert.Zero(t, result.SilverCredits)
	assert.Equal(t, 20, result.RoundedCredits)
}

func TestAllocateUserCreditsRounds(t *testing.T) {
	service := NewCreditService(nil, nil)

	// 40 * 1/3 = 13.33 rounds down
	result := service.allocateUserCredits("0xcccc", map[int]float64{1: 0, 2: 1}, 60, 40, 3, 3)

	assert.InDelta(t, 13.333333, result.SilverCredits, 1e-5)
	assert.Equal(t, 13, result.RoundedCredits)
}

func TestAllocateUserCreditsEmptyPoolSide(t *testing.T) {
	service := NewCreditService(nil, nil)

	// No fine gold in the round at all
	result := service.allocateUserCredits("0xaaaa", map[int]float64{1: 0, 2: 2}, 60, 40, 0, 2)

	assert.Zero(t, result.GoldCredits)
	assert.InDelta(t, 40.0, result.SilverCredits, 1e-9)
}

// A 1g and a 1000g gold sample with identical clock values must not earn the
// same credits, the heavier sample backs a thousand times more metal.
func TestAllocationScalesWithFineWeight(t *testing.T) {
	service := NewCreditService(nil, nil)

	samples := []models.VerifiedSample{
		{UserWallet: "0xsmall", MetalType: 1, WeightGrams: 1, Purity: 0.999, ClockValue: 5, SampleID: "tiny"},
		{UserWallet: "0xlarge", MetalType: 1, WeightGrams: 1000, Purity: 0.999, ClockValue: 5, SampleID: "bulk"},
	}

	totalGold, totalSilver := service.totalFineWeightByMetal(samples)
	userWeights := service.aggregateUserFineWeight(samples)

	small := service.allocateUserCredits("0xsmall", userWeights["0xsmall"], 60, 40, totalGold, totalSilver)
	large := service.allocateUserCredits("0xlarge", userWeights["0xlarge"], 60, 40, totalGold, totalSilver)

	assert.Greater(t, large.GoldCredits, small.GoldCredits)
	assert.InDelta(t, 60.0/1001.0, small.GoldCredits, 1e-9)
	assert.InDelta(t, 60000.0/1001.0, large.GoldCredits, 1e-9)
}

// Purity scales the contribution too, equal raw weight at different purity
// yields different shares.
func TestAllocationScalesWithPurity(t *testing.T) {
	service := NewCreditService(nil, nil)

	samples := []models.VerifiedSample{
		{UserWallet: "0xfine", MetalType: 2, WeightGrams: 100, Purity: 0.999, SampleID: "fine"},
		{UserWallet: "0xcoin", MetalType: 2, WeightGrams: 100, Purity: 0.900, SampleID: "coin"},
	}

	_, totalSilver := service.totalFineWeightByMetal(samples)
	userWeights := service.aggregateUserFineWeight(samples)

	fine := service.allocateUserCredits("0xfine", userWeights["0xfine"], 60, 40, 0, totalSilver)
	coin := service.allocateUserCredits("0xcoin", userWeights["0xcoin"], 60, 40, 0, totalSilver)

	assert.Greater(t, fine.SilverCredits, coin.SilverCredits)
	assert.InDelta(t, 40.0*99.9/189.9, fine.SilverCredits, 1e-9)
}

func TestDefaultConfigRatios(t *testing.T) {
	config := models.DefaultCreditsConfig()

	assert.Equal(t, 100, config.TotalPoolCredits)
	assert.InDelta(t, 1.0, config.GoldRatio+config.SilverRatio, 1e-9)
}

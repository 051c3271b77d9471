package model

import (
	"testing"
	"time"
)

func TestSignature_Deterministic(t *testing.T) {
	a := Signature("B0ABC123", DealPriceDrop, "", 19.99)
	b := Signature("B0ABC123", DealPriceDrop, "", 19.99)
	if a != b {
		t.Errorf("identical inputs hashed differently: %s vs %s", a, b)
	}
}

func TestSignature_CentRounding(t *testing.T) {
	// Float noise below half a cent must not change the signature.
	a := Signature("B0ABC123", DealAllTimeLow, "", 19.99)
	b := Signature("B0ABC123", DealAllTimeLow, "", 19.990000001)
	if a != b {
		t.Errorf("sub-cent noise changed signature")
	}

	c := Signature("B0ABC123", DealAllTimeLow, "", 19.98)
	if a == c {
		t.Errorf("different cent prices produced the same signature")
	}
}

func TestSignature_DiscriminatesParts(t *testing.T) {
	base := Signature("B0ABC123", DealBelowAverage, "30d", 10.00)

	cases := map[string]string{
		"item":   Signature("B0XYZ999", DealBelowAverage, "30d", 10.00),
		"type":   Signature("B0ABC123", DealPriceDrop, "30d", 10.00),
		"window": Signature("B0ABC123", DealBelowAverage, "90d", 10.00),
		"price":  Signature("B0ABC123", DealBelowAverage, "30d", 10.01),
	}
	for part, sig := range cases {
		if sig == base {
			t.Errorf("changing %s did not change signature", part)
		}
	}
}

func TestCandidateSignature_MatchesPackageFunc(t *testing.T) {
	c := DealCandidate{
		ItemID:       "B0ABC123",
		Type:         DealClearance,
		CurrentPrice: 7.49,
		DetectedAt:   time.Now(),
	}
	if c.Signature() != Signature("B0ABC123", DealClearance, "", 7.49) {
		t.Errorf("method and package signature disagree")
	}
}

package match

import (
	"reflect"
	"testing"
)

func TestAggregateDeduplicates(t *testing.T) {
	cands := []Candidate{
		{EntryID: 1, Confidence: 0.8, MatchedText: "Napa", Strategy: StrategyBrandName},
		{EntryID: 2, Confidence: 0.75, MatchedText: "Paracetamol", Strategy: StrategyGenericName},
		{EntryID: 1, Confidence: 0.95, MatchedText: "Napa", Strategy: StrategyFuzzy},
	}

	t.Run("first seen wins by default", func(t *testing.T) {
		results := Aggregate(cands, 10, false)
		if len(results) != 2 {
			t.Fatalf("results = %d, want 2", len(results))
		}
		// entry 1 keeps the earlier, lower-scored brand candidate
		if results[0].EntryID != 1 || results[0].Confidence != 0.8 || results[0].Strategy != StrategyBrandName {
			t.Errorf("unexpected top result %+v", results[0])
		}
	})

	t.Run("keepBest keeps the higher score", func(t *testing.T) {
		results := Aggregate(cands, 10, true)
		if results[0].EntryID != 1 || results[0].Confidence != 0.95 || results[0].Strategy != StrategyFuzzy {
			t.Errorf("unexpected top result %+v", results[0])
		}
	})
}

func TestAggregateOrdering(t *testing.T) {
	cands := []Candidate{
		{EntryID: 5, Confidence: 0.9, Strategy: StrategyFuzzy},
		{EntryID: 3, Confidence: 0.9, Strategy: StrategyBrandName},
		{EntryID: 2, Confidence: 0.9, Strategy: StrategyBrandName},
		{EntryID: 9, Confidence: 0.95, Strategy: StrategyBarcode},
		{EntryID: 7, Confidence: 0.4, Strategy: StrategyManufacturer},
	}
	results := Aggregate(cands, 10, false)

	wantIDs := []uint{9, 2, 3, 5, 7}
	var gotIDs []uint
	for _, r := range results {
		gotIDs = append(gotIDs, r.EntryID)
	}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Fatalf("order = %v, want %v", gotIDs, wantIDs)
	}

	t.Run("deterministic across runs", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			again := Aggregate(cands, 10, false)
			if !reflect.DeepEqual(again, results) {
				t.Fatalf("run %d produced different order: %v", i, again)
			}
		}
	})
}

func TestAggregateClampsConfidence(t *testing.T) {
	results := Aggregate([]Candidate{
		{EntryID: 1, Confidence: 1.7, Strategy: StrategyBrandName},
		{EntryID: 2, Confidence: -0.2, Strategy: StrategyFuzzy},
	}, 10, false)
	if results[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", results[0].Confidence)
	}
	if results[1].Confidence != 0.0 {
		t.Errorf("confidence = %v, want clamped to 0.0", results[1].Confidence)
	}
}

func TestAggregateTruncates(t *testing.T) {
	cands := []Candidate{
		{EntryID: 1, Confidence: 0.9, Strategy: StrategyBrandName},
		{EntryID: 2, Confidence: 0.8, Strategy: StrategyBrandName},
		{EntryID: 3, Confidence: 0.7, Strategy: StrategyBrandName},
	}
	if got := Aggregate(cands, 2, false); len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got := Aggregate(cands, 0, false); len(got) != 3 {
		t.Fatalf("results = %d, want all when limit <= 0", len(got))
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if got := Aggregate(nil, 10, false); len(got) != 0 {
		t.Fatalf("results = %d, want 0", len(got))
	}
}

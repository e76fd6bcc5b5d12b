package utils

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	if err := SetLocation("UTC"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}

	got := StartOfDay(time.Date(2024, 3, 5, 17, 42, 9, 0, time.UTC))
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestSetLocationUnknown(t *testing.T) {
	before := GetLocation()
	if err := SetLocation("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if GetLocation() != before {
		t.Error("location changed after failed SetLocation")
	}
}

package model

import "testing"

func TestEmailSourceValid(t *testing.T) {
	for _, s := range []EmailSource{
		EmailSourceDropcontact, EmailSourceHunterGeneric,
		EmailSourceReconstructed, EmailSourceApollo, EmailSourceNotFound,
	} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if EmailSource("").Valid() {
		t.Error("zero value must not be valid — it means not tried yet")
	}
	if EmailSource("hunter").Valid() {
		t.Error("unknown variant must not be valid")
	}
}

func TestVerifyStatusDeliverable(t *testing.T) {
	cases := []struct {
		status VerifyStatus
		want   bool
	}{
		{VerifyOK, true},
		{VerifyCatchAll, true},
		{VerifySkipped, true},
		{VerifyInvalid, false},
		{VerifyDisposable, false},
		{VerifyUnknown, false},
	}
	for _, tc := range cases {
		if got := tc.status.Deliverable(); got != tc.want {
			t.Errorf("%s.Deliverable() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestParseBusinessType(t *testing.T) {
	cases := []struct {
		in   string
		want BusinessType
	}{
		{"Manufacturer", BusinessManufacturer},
		{"RETAILER", BusinessRetailer},
		{"service", BusinessService},
		{"Distributor", BusinessDistributor},
		{"something else", BusinessUnknown},
		{"", BusinessUnknown},
	}
	for _, tc := range cases {
		if got := ParseBusinessType(tc.in); got != tc.want {
			t.Errorf("ParseBusinessType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPriorityForScore(t *testing.T) {
	if PriorityForScore(85) != PriorityHot {
		t.Error("85 should be hot")
	}
	if PriorityForScore(70) != PriorityHot {
		t.Error("70 boundary should be hot")
	}
	if PriorityForScore(55) != PriorityWarm {
		t.Error("55 should be warm")
	}
	if PriorityForScore(39) != PriorityCold {
		t.Error("39 should be cold")
	}
}

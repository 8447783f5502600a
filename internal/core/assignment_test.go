package core

import "testing"

func TestIdentityAssignmentValidates(t *testing.T) {
	a := IdentityAssignment(4)
	if err := a.Validate(); err != nil {
		t.Errorf("identity assignment should validate: %v", err)
	}
}

func TestAssignmentValidateRejectsOutOfRange(t *testing.T) {
	a := Assignment{0, 1, 5}
	if err := a.Validate(); err == nil {
		t.Error("expected error for out-of-range goal index")
	}
}

func TestAssignmentValidateRejectsDuplicate(t *testing.T) {
	a := Assignment{0, 0, 2}
	if err := a.Validate(); err == nil {
		t.Error("expected error for duplicate goal assignment")
	}
}

func TestAssignmentCloneIsIndependent(t *testing.T) {
	a := IdentityAssignment(3)
	b := a.Clone()
	b[0] = 2
	if a[0] == 2 {
		t.Error("Clone should not alias the original")
	}
}

func TestAssignmentDiff(t *testing.T) {
	a := Assignment{0, 1, 2}
	b := Assignment{0, 2, 1}
	diff := a.Diff(b)
	if len(diff) != 2 {
		t.Fatalf("Diff = %v, want 2 changed indices", diff)
	}
}

func TestAssignmentDiffEmptyWhenEqual(t *testing.T) {
	a := IdentityAssignment(5)
	b := a.Clone()
	if diff := a.Diff(b); diff != nil {
		t.Errorf("Diff of equal assignments = %v, want nil", diff)
	}
}

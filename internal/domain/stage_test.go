package domain

import "testing"

func TestIsTerminalStage(t *testing.T) {
	if !IsTerminalStage(StageWon) || !IsTerminalStage(StageLost) {
		t.Error("Won and Lost must be terminal")
	}
	for _, s := range []string{"New Lead", "won", "LOST", ""} {
		if IsTerminalStage(s) {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestContainsStageIsCaseSensitive(t *testing.T) {
	stages := []string{"New Lead", "Won"}
	if !ContainsStage(stages, "Won") {
		t.Error("expected exact match to be found")
	}
	if ContainsStage(stages, "won") {
		t.Error("stage matching must be case-sensitive")
	}
}

func TestFirstWorkingStage(t *testing.T) {
	cases := []struct {
		name   string
		stages []string
		want   string
	}{
		{"default pipeline", DefaultStages, "New Lead"},
		{"terminal first", []string{StageWon, "Open", StageLost}, "Open"},
		{"all terminal", []string{StageWon, StageLost}, StageWon},
		{"empty", nil, ""},
	}
	for _, tc := range cases {
		if got := FirstWorkingStage(tc.stages); got != tc.want {
			t.Errorf("%s: FirstWorkingStage = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestValidateDealFields(t *testing.T) {
	stages := []string{"New Lead", StageWon, StageLost}

	if err := ValidateDealFields("Acme", 5000, "New Lead", PriorityMedium, stages); err != nil {
		t.Fatalf("valid deal rejected: %v", err)
	}
	if err := ValidateDealFields("", 5000, "New Lead", PriorityMedium, stages); err == nil {
		t.Error("expected empty title to be rejected")
	}
	if err := ValidateDealFields("Acme", -1, "New Lead", PriorityMedium, stages); err == nil {
		t.Error("expected negative value to be rejected")
	}
	if err := ValidateDealFields("Acme", 0, "Nowhere", PriorityMedium, stages); err == nil {
		t.Error("expected unknown stage to be rejected")
	}
	if err := ValidateDealFields("Acme", 0, "New Lead", Priority("spicy"), stages); err == nil {
		t.Error("expected invalid priority to be rejected")
	}
}

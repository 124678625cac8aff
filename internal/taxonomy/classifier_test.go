package taxonomy

import "testing"

func TestClassifyKeepsTaxonomyMember(t *testing.T) {
	c := NewClassifier(DefaultTables())
	if got := c.Classify(Esportes, "Senado aprova lei", ""); got != Esportes {
		t.Fatalf("expected member to pass through, got %q", got)
	}
}

func TestClassifyAliasMatch(t *testing.T) {
	c := NewClassifier(DefaultTables())
	tests := map[string]string{
		"Futebol Brasileiro": Esportes,
		"ECONOMIA & Negócios": Economia,
		"world news":          Internacional,
		"Breaking":            Urgente,
	}
	for raw, want := range tests {
		if got := c.Classify(raw, "", ""); got != want {
			t.Errorf("Classify(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestClassifyKeywordScoring(t *testing.T) {
	c := NewClassifier(DefaultTables())
	got := c.Classify("governo", "Senado aprova nova lei de proteção de dados", "")
	if got != Politica {
		t.Fatalf("expected %q, got %q", Politica, got)
	}
}

func TestClassifyKeywordScoringWithoutAliases(t *testing.T) {
	tables := DefaultTables()
	tables.Aliases = nil
	c := NewClassifier(tables)
	got := c.Classify("governo", "Senado aprova nova lei de proteção de dados", "")
	if got != Politica {
		t.Fatalf("expected %q, got %q", Politica, got)
	}
}

func TestClassifyDefaultsWhenNothingScores(t *testing.T) {
	c := NewClassifier(DefaultTables())
	if got := c.Classify("", "Xyz qwerty", "lorem ipsum"); got != Geral {
		t.Fatalf("expected default %q, got %q", Geral, got)
	}
}

func TestClassifyTieBreaksByTableOrder(t *testing.T) {
	c := NewClassifier(Tables{
		Categories: []string{"A", "B"},
		Keywords: map[string][]string{
			"A": {"alpha"},
			"B": {"beta"},
		},
		Default: "A",
	})
	if got := c.Classify("", "alpha beta", ""); got != "A" {
		t.Fatalf("expected first-highest category A, got %q", got)
	}

	reversed := NewClassifier(Tables{
		Categories: []string{"B", "A"},
		Keywords: map[string][]string{
			"A": {"alpha"},
			"B": {"beta"},
		},
		Default: "A",
	})
	if got := reversed.Classify("", "alpha beta", ""); got != "B" {
		t.Fatalf("expected first-highest category B, got %q", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(DefaultTables())
	first := c.Classify("misc", "Hospital recebe vacina e prefeitura anuncia obra", "jogo de futebol")
	for i := 0; i < 50; i++ {
		if got := c.Classify("misc", "Hospital recebe vacina e prefeitura anuncia obra", "jogo de futebol"); got != first {
			t.Fatalf("run %d returned %q, first run returned %q", i, got, first)
		}
	}
}

func TestIsBreaking(t *testing.T) {
	c := NewClassifier(DefaultTables())
	if !c.IsBreaking(Urgente) {
		t.Fatalf("expected %q to be breaking", Urgente)
	}
	if c.IsBreaking(Politica) {
		t.Fatalf("did not expect %q to be breaking", Politica)
	}
}

package usecase

import (
	"testing"

	"github.com/tiendabot/backend/internal/domain"
)

func TestExtractQuantity(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		name     string
		input    string
		quantity float64
		unit     string
	}{
		{"kilograms", "2 kilos de papa", 2, UnitKilograms},
		{"kilograms abbreviation", "1.5kg de carne", 1.5, UnitKilograms},
		{"grams", "500 gramos de queso", 500, UnitGrams},
		{"liters", "2 litros de leche", 2, UnitLiters},
		{"milliliters", "250ml de crema", 250, UnitMilliliters},
		{"explicit units", "3 unidades de jabon", 3, UnitUnits},
		{"bare leading number", "2 arroces", 2, ""},
		{"comma decimal", "1,5 kg de tomate", 1.5, UnitKilograms},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.input)
			if !got.HasQuantity {
				t.Fatalf("Extract(%q) found no quantity", tc.input)
			}
			if got.Quantity != tc.quantity {
				t.Errorf("Quantity = %v, want %v", got.Quantity, tc.quantity)
			}
			if got.Unit != tc.unit {
				t.Errorf("Unit = %q, want %q", got.Unit, tc.unit)
			}
		})
	}

	t.Run("no quantity", func(t *testing.T) {
		got := e.Extract("aceite de girasol")
		if got.HasQuantity {
			t.Errorf("expected no quantity, got %v", got.Quantity)
		}
	})

	t.Run("unit pattern beats bare number", func(t *testing.T) {
		// "2" is also a leading number; the more specific kg pattern
		// must win because it is tried first.
		got := e.Extract("2 kg de arroz")
		if got.Unit != UnitKilograms {
			t.Errorf("Unit = %q, want %q", got.Unit, UnitKilograms)
		}
	})
}

func TestImplicitQuantities(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		input    string
		quantity float64
	}{
		{"una leche", 1},
		{"dos panes", 2},
		{"media libra de cafe", 0.5},
		{"una docena de huevos", 1}, // "una" appears first in the utterance
	}
	for _, tc := range cases {
		got := e.Extract(tc.input)
		if !got.HasQuantity || got.Quantity != tc.quantity {
			t.Errorf("Extract(%q) quantity = %v (has=%v), want %v", tc.input, got.Quantity, got.HasQuantity, tc.quantity)
		}
	}

	t.Run("explicit numeral wins over word", func(t *testing.T) {
		got := e.Extract("3 panes para un sancocho")
		if got.Quantity != 3 {
			t.Errorf("Quantity = %v, want 3", got.Quantity)
		}
	})
}

func TestUnitFamily(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"kg", UnitKilograms},
		{"Kilos", UnitKilograms},
		{"litro", UnitLiters},
		{"L", UnitLiters},
		{"ml", UnitMilliliters},
		{"gramos", UnitGrams},
		{"unidades", UnitUnits},
		{"arrobas", "arrobas"}, // unmapped tokens pass through
	}
	for _, tc := range cases {
		if got := UnitFamily(tc.input); got != tc.want {
			t.Errorf("UnitFamily(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDetectBrand(t *testing.T) {
	e := NewEntityExtractor()

	got := e.Extract("quiero arroz Diana de kilo")
	if got.Brand != "diana" {
		t.Errorf("Brand = %q, want diana", got.Brand)
	}

	got = e.Extract("leche ALPINA deslactosada")
	if got.Brand != "alpina" {
		t.Errorf("Brand = %q, want alpina", got.Brand)
	}

	got = e.Extract("arroz blanco")
	if got.Brand != "" {
		t.Errorf("Brand = %q, want empty", got.Brand)
	}
}

func TestExtractPriceRange(t *testing.T) {
	e := NewEntityExtractor()

	t.Run("between", func(t *testing.T) {
		got := e.Extract("aceite entre 5000 y 10000")
		if !got.HasPrice || got.MinPrice != 5000 || got.MaxPrice != 10000 {
			t.Errorf("price range = [%v, %v] has=%v, want [5000, 10000]", got.MinPrice, got.MaxPrice, got.HasPrice)
		}
	})

	t.Run("upper bound", func(t *testing.T) {
		got := e.Extract("arroz de menos de 4000")
		if !got.HasPrice || got.MaxPrice != 4000 {
			t.Errorf("MaxPrice = %v has=%v, want 4000", got.MaxPrice, got.HasPrice)
		}
	})

	t.Run("no price", func(t *testing.T) {
		got := e.Extract("arroz diana 500g")
		if got.HasPrice {
			t.Errorf("expected no price range, got [%v, %v]", got.MinPrice, got.MaxPrice)
		}
	})
}

func TestExtractProductName(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		input string
		want  string
	}{
		{"quiero 2 kilos de papa", "papa"},
		{"dame una leche entera", "leche entera"},
		{"agrega arroz diana por favor", "arroz diana"},
		{"2 arroces", "arroces"},
	}
	for _, tc := range cases {
		got := e.Extract(tc.input)
		if got.ProductName != tc.want {
			t.Errorf("Extract(%q).ProductName = %q, want %q", tc.input, got.ProductName, tc.want)
		}
	}

	t.Run("short residual is absent", func(t *testing.T) {
		got := e.Extract("quiero el de la")
		if got.ProductName != "" {
			t.Errorf("ProductName = %q, want empty", got.ProductName)
		}
	})
}

func TestClassifyIntent(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		input      string
		intent     domain.Intent
		confidence float64
	}{
		{"hola buenas", domain.IntentGreeting, 0.95},
		{"agrega 2 panes", domain.IntentAddItem, 0.9},
		{"quiero arroz", domain.IntentAddItem, 0.9},
		{"cuanto cuesta el aceite", domain.IntentPrice, 0.85},
		{"tienen leche deslactosada", domain.IntentInfo, 0.8},
		{"quita el arroz del pedido", domain.IntentModify, 0.85},
		{"eso es todo gracias", domain.IntentFinalize, 0.9},
		{"arroz diana 500g", domain.IntentSearch, 0.6},
	}

	for _, tc := range cases {
		got := e.ClassifyIntent(tc.input)
		if got.Intent != tc.intent {
			t.Errorf("ClassifyIntent(%q) = %v, want %v", tc.input, got.Intent, tc.intent)
		}
		if got.Confidence != tc.confidence {
			t.Errorf("ClassifyIntent(%q) confidence = %v, want %v", tc.input, got.Confidence, tc.confidence)
		}
	}

	t.Run("greeting wins over later rules", func(t *testing.T) {
		// "hola quiero arroz" matches both greeting and add; rule order
		// decides, not scoring.
		got := e.ClassifyIntent("hola quiero arroz")
		if got.Intent != domain.IntentGreeting {
			t.Errorf("Intent = %v, want greeting", got.Intent)
		}
	})
}

func TestParseSelection(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		input string
		index int
		ok    bool
	}{
		{"2", 1, true},
		{"el 2", 1, true},
		{"la 1", 0, true},
		{"la primera", 0, true},
		{"el segundo", 1, true},
		{"la tercera", 2, true},
		{"el quinto", 4, true},
		{"quiero arroz", 0, false},
		{"", 0, false},
		{"0", 0, false},
	}

	for _, tc := range cases {
		idx, ok := e.ParseSelection(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseSelection(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && idx != tc.index {
			t.Errorf("ParseSelection(%q) = %d, want %d", tc.input, idx, tc.index)
		}
	}
}

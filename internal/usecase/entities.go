package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
)

// Canonical unit tokens. Surface synonyms all map here; anything
// unrecognized passes through unchanged.
const (
	UnitKilograms   = "kilograms"
	UnitGrams       = "grams"
	UnitLiters      = "liters"
	UnitMilliliters = "milliliters"
	UnitUnits       = "units"
)

// quantityPattern is one ordered extraction rule. Earlier patterns are
// more specific and must be tried first; the first match wins.
type quantityPattern struct {
	re   *regexp.Regexp
	unit string
}

// Ordered list: unit-bearing patterns before the bare leading number.
var quantityPatterns = []quantityPattern{
	{regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:kilogramos?|kilos?|kg)\b`), UnitKilograms},
	{regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:gramos?|gr|g)\b`), UnitGrams},
	{regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:litros?|lt|l)\b`), UnitLiters},
	{regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:mililitros?|ml)\b`), UnitMilliliters},
	{regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:unidades?|und|paquetes?|bolsas?)\b`), UnitUnits},
	{regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\b`), ""},
}

// unitSynonyms maps surface unit tokens to their canonical family.
var unitSynonyms = map[string]string{
	"kg": UnitKilograms, "kilo": UnitKilograms, "kilos": UnitKilograms,
	"kilogramo": UnitKilograms, "kilogramos": UnitKilograms,
	"g": UnitGrams, "gr": UnitGrams, "gramo": UnitGrams, "gramos": UnitGrams,
	"l": UnitLiters, "lt": UnitLiters, "litro": UnitLiters, "litros": UnitLiters,
	"ml": UnitMilliliters, "mililitro": UnitMilliliters, "mililitros": UnitMilliliters,
	"unidad": UnitUnits, "unidades": UnitUnits, "und": UnitUnits, "u": UnitUnits,
}

// implicitQuantities maps Spanish quantity words to numbers. Only used
// when no explicit numeral was found.
var implicitQuantities = map[string]float64{
	"un": 1, "uno": 1, "una": 1,
	"dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
	"media": 0.5, "medio": 0.5,
	"par": 2, "docena": 12,
}

// knownBrands is the fixed brand vocabulary, diacritic-free. Substring
// match against the folded utterance; first hit wins, no ranking.
var knownBrands = []string{
	"diana", "roa", "florhuila", "alpina", "colanta", "alqueria",
	"fruco", "zenu", "rica", "nestle", "maggi", "knorr", "bimbo",
	"ramo", "postobon", "coca cola", "aguila", "fab", "ariel",
	"rey", "axion", "colgate", "familia", "nosotras", "doria",
}

// fillerWords are action verbs and politeness fillers stripped before
// the residual product name is taken.
var fillerWords = map[string]bool{
	"quiero": true, "quisiera": true, "necesito": true, "deseo": true,
	"dame": true, "regalame": true, "mandame": true, "enviame": true,
	"agrega": true, "agregar": true, "agregame": true, "anade": true,
	"pon": true, "ponme": true, "mete": true, "sumale": true,
	"busco": true, "buscar": true, "comprar": true, "compra": true,
	"vende": true, "vendes": true, "venden": true, "tienes": true,
	"tienen": true, "hay": true, "quita": true, "quitame": true,
	"elimina": true, "borra": true, "remueve": true, "saca": true,
	"pedido": true, "carrito": true, "lista": true, "del": true,
	"cuanto": true, "cuanta": true, "cuesta": true, "cuestan": true,
	"vale": true, "valen": true, "precio": true,
	"poco": true, "poquito": true, "pocos": true, "cuantos": true,
	"cuantas": true, "varios": true, "varias": true, "bastante": true,
	"bastantes": true,
	"me": true, "das": true, "de": true,
	"por": true, "favor": true, "porfa": true, "porfavor": true,
	"gracias": true, "hola": true, "buenas": true, "un": true,
	"una": true, "unos": true, "unas": true, "el": true, "la": true,
	"los": true, "las": true, "y": true, "o": true, "con": true,
	"para": true, "que": true,
}

// priceRangePatterns extract explicit price bounds, ordered most
// specific first.
var (
	priceBetweenRe = regexp.MustCompile(`entre\s*\$?(\d+(?:[.,]\d+)?)\s*(?:y|a)\s*\$?(\d+(?:[.,]\d+)?)`)
	priceMaxRe     = regexp.MustCompile(`(?:menos de|maximo|hasta|no mas de)\s*\$?(\d+(?:[.,]\d+)?)`)
	priceMinRe     = regexp.MustCompile(`(?:mas de|minimo|desde)\s*\$?(\d+(?:[.,]\d+)?)`)
)

// intentRule is one ordered classification rule with a fixed confidence.
type intentRule struct {
	re         *regexp.Regexp
	intent     domain.Intent
	confidence float64
}

// Rule order is the tie-break policy: greeting before add, add before
// questions, modification before finalize, generic search last.
var intentRules = []intentRule{
	{regexp.MustCompile(`^(?:hola|hey|saludos|buenos dias|buenas tardes|buenas noches|buenas|que tal)\b`), domain.IntentGreeting, 0.95},
	{regexp.MustCompile(`\b(?:agrega|agregame|anade|ponme|sumale|mete|quiero|dame|necesito|me das)\b`), domain.IntentAddItem, 0.9},
	{regexp.MustCompile(`\b(?:cuanto cuesta|cuanto vale|cuanto es|que precio|precio de|precio)\b`), domain.IntentPrice, 0.85},
	{regexp.MustCompile(`\b(?:que es|informacion|info de|tienes|tienen|hay|venden)\b`), domain.IntentInfo, 0.8},
	{regexp.MustCompile(`\b(?:quita|quitame|elimina|borra|cambia|remueve|saca)\b`), domain.IntentModify, 0.85},
	{regexp.MustCompile(`\b(?:finalizar|confirmar|confirmo|eso es todo|nada mas|seria todo|cerrar pedido|pedido listo|terminar)\b`), domain.IntentFinalize, 0.9},
}

const defaultSearchConfidence = 0.6

// ordinalSelections maps ordinal words to zero-based indices.
var ordinalSelections = map[string]int{
	"primero": 0, "primera": 0, "segundo": 1, "segunda": 1,
	"tercero": 2, "tercera": 2, "cuarto": 3, "cuarta": 3,
	"quinto": 4, "quinta": 4,
}

var numericSelectionRe = regexp.MustCompile(`^(?:el|la)?\s*(\d{1,2})$`)

// parseNumber accepts both decimal separators.
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// EntityExtractor pulls quantity, unit, brand, price range and the
// residual product name out of a raw utterance.
type EntityExtractor struct{}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{}
}

// Extract runs every extraction pass over the utterance. All fields of
// the result are independently optional.
func (e *EntityExtractor) Extract(utterance string) domain.ExtractedEntities {
	folded := textnorm.Fold(utterance)
	entities := domain.ExtractedEntities{}

	// Quantity + unit: first matching ordered pattern wins.
	quantitySpan := ""
	for _, p := range quantityPatterns {
		m := p.re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		if n, ok := parseNumber(m[1]); ok {
			entities.Quantity = n
			entities.HasQuantity = true
			entities.Unit = p.unit
			quantitySpan = m[0]
		}
		break
	}

	// Implicit quantity words, only without an explicit numeral.
	if !entities.HasQuantity {
		for _, word := range strings.Fields(folded) {
			if n, ok := implicitQuantities[word]; ok {
				entities.Quantity = n
				entities.HasQuantity = true
				break
			}
		}
	}

	entities.Brand = e.detectBrand(folded)

	if min, max, ok := extractPriceRange(folded); ok {
		entities.MinPrice = min
		entities.MaxPrice = max
		entities.HasPrice = true
	}

	entities.ProductName = e.extractProductName(folded, quantitySpan)

	return entities
}

// ClassifyIntent applies the ordered intent rules; the first match wins
// and carries a fixed confidence. Anything unmatched is a generic search.
func (e *EntityExtractor) ClassifyIntent(utterance string) domain.IntentResult {
	folded := textnorm.Fold(utterance)

	result := domain.IntentResult{
		Intent:     domain.IntentSearch,
		Confidence: defaultSearchConfidence,
	}
	for _, rule := range intentRules {
		if rule.re.MatchString(folded) {
			result.Intent = rule.intent
			result.Confidence = rule.confidence
			break
		}
	}

	result.Entities = e.Extract(utterance)
	return result
}

// ParseSelection recognizes a clarification answer like "el 2" or
// "la primera" and returns a zero-based index. Unrecognized input is
// simply not a selection, never an error.
func (e *EntityExtractor) ParseSelection(utterance string) (int, bool) {
	folded := strings.TrimSpace(textnorm.Fold(utterance))

	if m := numericSelectionRe.FindStringSubmatch(folded); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 {
			return n - 1, true
		}
	}

	for _, word := range strings.Fields(folded) {
		if idx, ok := ordinalSelections[word]; ok {
			return idx, true
		}
	}

	return 0, false
}

// UnitFamily canonicalizes a surface unit token; unmapped tokens pass
// through unchanged.
func UnitFamily(token string) string {
	folded := textnorm.Fold(token)
	if canonical, ok := unitSynonyms[folded]; ok {
		return canonical
	}
	return token
}

func (e *EntityExtractor) detectBrand(folded string) string {
	for _, brand := range knownBrands {
		if strings.Contains(folded, brand) {
			return brand
		}
	}
	return ""
}

func extractPriceRange(folded string) (float64, float64, bool) {
	if m := priceBetweenRe.FindStringSubmatch(folded); m != nil {
		min, ok1 := parseNumber(m[1])
		max, ok2 := parseNumber(m[2])
		if ok1 && ok2 {
			return min, max, true
		}
	}
	if m := priceMaxRe.FindStringSubmatch(folded); m != nil {
		if max, ok := parseNumber(m[1]); ok {
			return 0, max, true
		}
	}
	if m := priceMinRe.FindStringSubmatch(folded); m != nil {
		if min, ok := parseNumber(m[1]); ok {
			return min, 0, true
		}
	}
	return 0, 0, false
}

// extractProductName is "whatever remains" after removing the quantity
// phrase, filler words and leftover digits. Residuals of two characters
// or fewer are treated as absent.
func (e *EntityExtractor) extractProductName(folded, quantitySpan string) string {
	remainder := folded
	if quantitySpan != "" {
		remainder = strings.Replace(remainder, quantitySpan, " ", 1)
	}

	var kept []string
	for _, word := range strings.Fields(remainder) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" || fillerWords[trimmed] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64); err == nil {
			continue
		}
		kept = append(kept, trimmed)
	}

	name := strings.Join(kept, " ")
	if len(name) <= 2 {
		return ""
	}
	return name
}

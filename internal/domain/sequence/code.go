// Package sequence contiene las reglas puras de la numeración de tenants:
// categorías conocidas, prefijos y formato del código visible (ej. Casa_01).
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

// Category discriminador de la serie de numeración.
type Category string

// Categorías conocidas (conjunto cerrado).
const (
	CategoryNursingHome   Category = "casa-repouso"
	CategoryPetShop       Category = "petshop"
	CategoryPhysiotherapy Category = "fisioterapia"
)

// DefaultCategory es la que asumen los registros legados sin categoría.
const DefaultCategory = CategoryNursingHome

// MinWidth ancho mínimo del número dentro del código; se amplía si no alcanza.
const MinWidth = 2

var prefixes = map[Category]string{
	CategoryNursingHome:   "Casa",
	CategoryPetShop:       "Pet",
	CategoryPhysiotherapy: "Fisio",
}

var aliases = map[string]Category{
	"casa-repouso": CategoryNursingHome,
	"casa_repouso": CategoryNursingHome,
	"casa repouso": CategoryNursingHome,
	"casa":         CategoryNursingHome,
	"petshop":      CategoryPetShop,
	"pet-shop":     CategoryPetShop,
	"pet":          CategoryPetShop,
	"fisioterapia": CategoryPhysiotherapy,
	"fisio":        CategoryPhysiotherapy,
}

// Categories devuelve las categorías conocidas en orden estable.
func Categories() []Category {
	return []Category{CategoryNursingHome, CategoryPetShop, CategoryPhysiotherapy}
}

// Prefix devuelve el prefijo del código de la categoría.
func (c Category) Prefix() (string, error) {
	p, ok := prefixes[c]
	if !ok {
		return "", domain.Invalid("categoría desconocida %q", string(c))
	}
	return p, nil
}

// Valid informa si la categoría pertenece al conjunto cerrado.
func (c Category) Valid() bool {
	_, ok := prefixes[c]
	return ok
}

// ParseCategory normaliza la entrada (espacios, mayúsculas, acentos) y la
// resuelve a una categoría conocida.
func ParseCategory(raw string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", domain.Invalid("categoría requerida")
	}
	if stripped, _, err := transform.String(diacritics(), key); err == nil {
		key = stripped
	}
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", domain.Invalid("categoría desconocida %q", raw)
}

func diacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// FormatCode construye el código visible: prefijo + "_" + número con ceros a la
// izquierda hasta MinWidth. Función pura.
func FormatCode(c Category, number int64) (string, error) {
	prefix, err := c.Prefix()
	if err != nil {
		return "", err
	}
	if number <= 0 {
		return "", domain.Invalid("número de secuencia inválido %d", number)
	}
	return fmt.Sprintf("%s_%0*d", prefix, MinWidth, number), nil
}

// ParseCode es la inversa de FormatCode: devuelve categoría y número de un código.
func ParseCode(code string) (Category, int64, error) {
	prefix, digits, ok := strings.Cut(strings.TrimSpace(code), "_")
	if !ok || digits == "" {
		return "", 0, domain.Invalid("código con formato inválido %q", code)
	}
	var cat Category
	for c, p := range prefixes {
		if strings.EqualFold(p, prefix) {
			cat = c
			break
		}
	}
	if cat == "" {
		return "", 0, domain.Invalid("prefijo de código desconocido %q", prefix)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return "", 0, domain.Invalid("número de código inválido %q", digits)
	}
	return cat, n, nil
}

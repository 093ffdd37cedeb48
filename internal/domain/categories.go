package domain

import "strings"

// DefaultCategoryName is used when an extracted category is empty.
const DefaultCategoryName = "Outros"

// SeedCategories are created when the store is initialized.
var SeedCategories = []string{
	"Alimentação", "Transporte", "Moradia", "Saúde", "Educação",
	"Lazer", "Compras", "Serviços", "Salário", "Investimentos", "Outros",
}

// CanonicalCategoryName maps a loosely spelled category onto the seed set.
// Unknown names are returned trimmed so they can be created on demand.
func CanonicalCategoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCategoryName
	}
	for _, seed := range SeedCategories {
		if strings.EqualFold(seed, name) {
			return seed
		}
	}
	return name
}

// DefaultDescription is stored when a transaction arrives without one.
const DefaultDescription = "Sem descrição"

package turkishsearch

import "strings"

// Türkçe karakterlere duyarsız LIKE filtresi üretir.
// "Şükrü" araması "sukru" yazılarak da bulunabilsin diye her iki taraf
// da ASCII karşılıklarına indirgenir.

var folder = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "I", "i",
	"İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
)

// Fold küçük harfe çevirip Türkçe karakterleri ASCII karşılıklarına indirger.
func Fold(s string) string {
	return strings.ToLower(folder.Replace(s))
}

// SQLFilter verilen kolon için katlanmış LIKE koşulu ve argümanlarını döndürür.
func SQLFilter(column, value string) (string, []any) {
	fragment := "translate(lower(" + column + "), 'çğıöşü', 'cgiosu') LIKE ?"
	return fragment, []any{"%" + Fold(value) + "%"}
}

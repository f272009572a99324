package geocoding

import "strings"

// querySeparator разделяет части поискового запроса к геокодеру.
const querySeparator = ", "

// Address разбор адреса, который возвращает обратное геокодирование.
// Пустое поле означает, что провайдер его не вернул.
type Address struct {
	Suburb        string
	Neighbourhood string
	CityDistrict  string
	County        string
	City          string
	Town          string
	Village       string
	State         string
	Country       string
}

// IsEmpty true, если в адресе нет ни одного поля.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// PlaceName выбирает самое «локальное» название из доступных:
// район → микрорайон → округ города → округ → город → посёлок → деревня → регион.
func (a Address) PlaceName() string {
	return firstNonEmpty(
		a.Suburb,
		a.Neighbourhood,
		a.CityDistrict,
		a.County,
		a.City,
		a.Town,
		a.Village,
		a.State,
	)
}

// CityContext название населённого пункта, независимо от того, что выбрал PlaceName.
func (a Address) CityContext() string {
	return firstNonEmpty(a.City, a.Town, a.Village)
}

// ComposeQuery собирает запрос прямого геокодирования: место, город (если он
// отличается от места) и страна, пустые части пропускаются.
func ComposeQuery(place, city, country string) string {
	if city == place {
		city = ""
	}
	return joinNonEmpty(place, city, country)
}

// CityQuery запрос для повторной попытки: только город и страна.
func CityQuery(city, country string) string {
	return joinNonEmpty(city, country)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, querySeparator)
}

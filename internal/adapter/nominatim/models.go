package nominatim

// AddressDetails разбор адреса в ответе /reverse (addressdetails=1).
type AddressDetails struct {
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	CityDistrict  string `json:"city_district"`
	County        string `json:"county"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

// ReverseResponse ответ /reverse?format=jsonv2.
// При отсутствии объекта Nominatim отвечает 200 с заполненным Error.
type ReverseResponse struct {
	PlaceID     int64           `json:"place_id"`
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	DisplayName string          `json:"display_name"`
	Address     *AddressDetails `json:"address"`
	Error       string          `json:"error"`
}

// SearchResult элемент массива в ответе /search?format=jsonv2. Координаты приходят строками.
type SearchResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

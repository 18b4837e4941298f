package service

import "strings"

// regionByCode — таблица перевода сырых кодов локаций в отображаемые регионы.
// Коды, которых нет в таблице, проходят как есть и фильтруются по литералу
var regionByCode = map[string]string{
	// Северная Америка
	"USA": "North America",
	"CAN": "North America",
	"MEX": "North America",

	// Европа
	"GBR": "Europe",
	"FRA": "Europe",
	"DEU": "Europe",
	"ESP": "Europe",
	"ITA": "Europe",
	"NLD": "Europe",
	"POL": "Europe",
	"IRL": "Europe",
	"CHE": "Europe",
	"SWE": "Europe",

	// Индия
	"IND": "India",

	// Азиатско-Тихоокеанский регион
	"CHN": "APAC",
	"JPN": "APAC",
	"SGP": "APAC",
	"AUS": "APAC",
	"KOR": "APAC",

	// Латинская Америка
	"BRA": "LATAM",
	"ARG": "LATAM",
	"COL": "LATAM",
}

// RegionForCode переводит сырой код локации в отображаемый регион.
// Неизвестный код возвращается без изменений
func RegionForCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	if region, ok := regionByCode[strings.ToUpper(trimmed)]; ok {
		return region
	}
	return trimmed
}

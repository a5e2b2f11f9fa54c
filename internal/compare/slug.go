package compare

import "strings"

// slugToPartyTable maps URL slugs to the party names stored on candidates.
// Unmapped slugs pass through unchanged.
var slugToPartyTable = map[string]string{
	"fuerza-popular":               "Fuerza Popular",
	"peru-libre":                   "Perú Libre",
	"accion-popular":               "Acción Popular",
	"partido-morado":               "Partido Morado",
	"juntos-por-el-peru":           "Juntos por el Perú",
	"renovacion-popular":           "Renovación Popular",
	"avanza-pais":                  "Avanza País",
	"partido-popular-cristiano":    "Partido Popular Cristiano",
	"frente-amplio":                "Frente Amplio",
	"somos-peru":                   "Somos Perú",
	"union-por-el-peru":            "Unión por el Perú",
	"democracia-directa":           "Democracia Directa",
	"renacimiento-unido-nacional":  "Renacimiento Unido Nacional",
	"victoria-nacional":            "Victoria Nacional",
	"partido-nacionalista-peruano": "Partido Nacionalista Peruano",
	"frente-de-la-esperanza":       "Frente de la Esperanza",
	"podemos-peru":                 "Podemos Perú",
	"peru-patria-segura":           "Perú Patria Segura",
	"alianza-para-el-progreso":     "Alianza para el Progreso",
}

// SlugToParty resolves a URL slug to its party name.
func SlugToParty(slug string) string {
	if party, ok := slugToPartyTable[slug]; ok {
		return party
	}
	return slug
}

// PartyToSlug is the reverse mapping, used for labeling output.
func PartyToSlug(party string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(stripDiacritics(party)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
